// Package store persists credential type registrations.
package store

import (
	"context"

	"sigil/internal/registry/models"
	id "sigil/pkg/domain"
)

// Store is the persistence boundary for the credential type registry.
//
// Error Contract:
// - Create assigns the next dense sequential ID to ct.ID; assignment is
//   atomic under concurrent creates
// - Get returns sentinel.ErrNotFound for an unregistered ID
// - NextID returns the ID the next Create will assign (equals the count of
//   registered types)
type Store interface {
	Create(ctx context.Context, ct *models.CredentialType) error
	Get(ctx context.Context, typeID id.CredentialTypeID) (*models.CredentialType, error)
	List(ctx context.Context) ([]*models.CredentialType, error)
	NextID(ctx context.Context) (uint64, error)
}
