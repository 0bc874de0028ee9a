// Package ledger exposes the multi-asset balance primitive behind the
// non-transfer guard. Credentials are soulbound: balance moves only on mint
// (from the zero address), burn (to the zero address), or an administrative
// recovery sanctioned by the issuance engine. Every other movement fails.
package ledger

import (
	"context"

	contracts "sigil/contracts/ledger"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
)

// Ledger is the guarded balance ledger consumed by the issuance engine.
type Ledger struct {
	store Store
}

// New wraps a balance store with the non-transfer guard.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// BalanceOf returns the quantity of one credential type held by holder.
func (l *Ledger) BalanceOf(ctx context.Context, holder id.Address, typeID id.CredentialTypeID) (uint64, error) {
	return l.store.Balance(ctx, holder, typeID)
}

// BalanceOfBatch returns balances for parallel holder/type pairs.
func (l *Ledger) BalanceOfBatch(ctx context.Context, holders []id.Address, typeIDs []id.CredentialTypeID) ([]uint64, error) {
	if len(holders) != len(typeIDs) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "holders and type IDs must have equal length")
	}
	out := make([]uint64, len(holders))
	for i := range holders {
		qty, err := l.store.Balance(ctx, holders[i], typeIDs[i])
		if err != nil {
			return nil, err
		}
		out[i] = qty
	}
	return out, nil
}

// TotalSupply returns the outstanding units of one credential type.
func (l *Ledger) TotalSupply(ctx context.Context, typeID id.CredentialTypeID) (uint64, error) {
	return l.store.TotalSupply(ctx, typeID)
}

// Mint credits qty units of typeID to holder. The movement source is the
// zero address, which is the only lawful mint form.
func (l *Ledger) Mint(ctx context.Context, to id.Address, typeID id.CredentialTypeID, qty uint64) error {
	if to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot mint to the zero address")
	}
	if qty == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "quantity must be positive")
	}
	return l.store.Apply(ctx, contracts.Movement{
		From:    id.ZeroAddress.String(),
		To:      to.String(),
		Entries: []contracts.Entry{{TypeID: uint64(typeID), Quantity: qty}},
	})
}

// Burn debits qty units of typeID from holder into the zero address.
func (l *Ledger) Burn(ctx context.Context, from id.Address, typeID id.CredentialTypeID, qty uint64) error {
	if from.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot burn from the zero address")
	}
	if qty == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "quantity must be positive")
	}
	return l.store.Apply(ctx, contracts.Movement{
		From:    from.String(),
		To:      id.ZeroAddress.String(),
		Entries: []contracts.Entry{{TypeID: uint64(typeID), Quantity: qty}},
	})
}

// BurnBatch debits several entries from holder in one atomic movement.
func (l *Ledger) BurnBatch(ctx context.Context, from id.Address, entries []contracts.Entry) error {
	if from.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot burn from the zero address")
	}
	if len(entries) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "burn batch cannot be empty")
	}
	for _, e := range entries {
		if e.Quantity == 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "quantity must be positive")
		}
	}
	return l.store.Apply(ctx, contracts.Movement{
		From:    from.String(),
		To:      id.ZeroAddress.String(),
		Entries: entries,
	})
}

// Transfer always fails: credentials are bound to their holder. The method
// exists so callers reaching for the familiar primitive get the domain answer
// rather than a missing-method surprise.
func (l *Ledger) Transfer(_ context.Context, _, _ id.Address, _ id.CredentialTypeID, _ uint64) error {
	return dErrors.New(dErrors.CodeNonTransferable, "credentials are non-transferable")
}

// Recover executes a holder-to-holder batch move. This is the single
// sanctioned bypass of the non-transfer guard; only the issuance engine's
// recovery operation calls it, after owner authorization.
func (l *Ledger) Recover(ctx context.Context, from, to id.Address, entries []contracts.Entry) error {
	if from.IsZero() || to.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "recovery endpoints must be non-zero addresses")
	}
	if from == to {
		return dErrors.New(dErrors.CodeInvalidInput, "recovery endpoints must differ")
	}
	if len(entries) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "recovery movement cannot be empty")
	}
	return l.store.Apply(ctx, contracts.Movement{
		From:    from.String(),
		To:      to.String(),
		Entries: entries,
	})
}

// SetApprovalForAll lets holder authorize (or revoke) operator to burn on
// its behalf. Approvals grant no transfer rights; burns are the only
// delegated mutation.
func (l *Ledger) SetApprovalForAll(ctx context.Context, holder, operator id.Address, approved bool) error {
	if holder.IsZero() || operator.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "approval parties must be non-zero addresses")
	}
	if holder == operator {
		return dErrors.New(dErrors.CodeInvalidInput, "holder cannot approve itself")
	}
	return l.store.SetApproval(ctx, holder, operator, approved)
}

// IsApprovedForAll reports whether operator may burn on holder's behalf.
func (l *Ledger) IsApprovedForAll(ctx context.Context, holder, operator id.Address) (bool, error) {
	return l.store.IsApproved(ctx, holder, operator)
}
