package ledger

import (
	"context"

	contracts "sigil/contracts/ledger"
	id "sigil/pkg/domain"
)

// Store is the raw balance store underneath the guarded ledger. It applies
// movements without judging them; the Ledger decides which movements are
// lawful.
//
// Error Contract:
// - Balance and TotalSupply return 0, nil for holders/types never seen
// - Apply returns sentinel.ErrInsufficient when a debit exceeds the balance;
//   on that error no entry of the movement has been applied
// - SetApproval and IsApproved never return sentinel.ErrNotFound
type Store interface {
	// Balance returns the quantity of one credential type held by one holder.
	Balance(ctx context.Context, holder id.Address, typeID id.CredentialTypeID) (uint64, error)

	// TotalSupply returns the outstanding units of one credential type.
	TotalSupply(ctx context.Context, typeID id.CredentialTypeID) (uint64, error)

	// Apply atomically executes a movement: every entry is debited from
	// From and credited to To. The zero address is the mint source and the
	// burn sink; supply tracks accordingly. All entries apply or none do.
	Apply(ctx context.Context, movement contracts.Movement) error

	// SetApproval records whether operator may burn on holder's behalf.
	SetApproval(ctx context.Context, holder, operator id.Address, approved bool) error

	// IsApproved reports whether operator may burn on holder's behalf.
	IsApproved(ctx context.Context, holder, operator id.Address) (bool, error)
}
