package authz

import (
	"context"

	id "sigil/pkg/domain"
)

// NonceStore tracks the per-holder monotonic counter that makes each signed
// authorization single-use.
//
// Error Contract:
// - Current returns 0, nil for holders never seen
// - Consume returns sentinel.ErrStaleNonce when expected does not equal the
//   current counter; on success the counter becomes expected+1
type NonceStore interface {
	Current(ctx context.Context, holder id.Address) (uint64, error)
	Consume(ctx context.Context, holder id.Address, expected uint64) error
}
