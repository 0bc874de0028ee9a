package audit

import (
	"context"

	id "sigil/pkg/domain"
)

// Store persists audit events.
// Error Contract:
// - Append returns nil on success or a wrapped error on infrastructure failure
// - ListByHolder returns an empty slice, never nil error, when no events exist
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByHolder(ctx context.Context, holder id.Address) ([]Event, error)
}
