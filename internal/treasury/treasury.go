// Package treasury receives the value attached to mint requests. Forwarding
// runs strictly after every state mutation of the operation has committed.
package treasury

import (
	"context"
	"time"

	id "sigil/pkg/domain"
)

// Receipt records one forwarded value amount.
type Receipt struct {
	From       id.Address `json:"from"`
	Treasury   id.Address `json:"treasury"`
	Value      uint64     `json:"value"`
	ReceivedAt time.Time  `json:"received_at"`
}

// Sink accepts forwarded value on behalf of the treasury identity.
//
// Error Contract:
// - Forward is called only with value > 0 and a non-zero treasury address
type Sink interface {
	Forward(ctx context.Context, from, treasury id.Address, value uint64) error
}
