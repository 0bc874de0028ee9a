// Package store persists the administrative state and the minter set.
package store

import (
	"context"

	"sigil/internal/accesscontrol/models"
	id "sigil/pkg/domain"
)

// Store is the persistence boundary for administrative state.
//
// Error Contract:
// - State returns sentinel.ErrNotFound when genesis has not been written
// - AddMinter returns sentinel.ErrConflict on duplicate membership
// - RemoveMinter returns sentinel.ErrNotFound on absent membership
// - IsMinter returns false, nil for unknown addresses
type Store interface {
	State(ctx context.Context) (*models.State, error)
	SetOwner(ctx context.Context, owner id.Address) error
	SetPaused(ctx context.Context, paused bool) error
	SetSigner(ctx context.Context, signer string) error
	SetTreasury(ctx context.Context, treasury id.Address) error
	SetBaseURI(ctx context.Context, baseURI string) error

	IsMinter(ctx context.Context, addr id.Address) (bool, error)
	AddMinter(ctx context.Context, addr id.Address) error
	RemoveMinter(ctx context.Context, addr id.Address) error
	ListMinters(ctx context.Context) ([]id.Address, error)
}
