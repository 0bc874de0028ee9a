package store

import (
	"context"
	"sync"

	"sigil/internal/registry/models"
	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// Memory is an in-memory registry store for tests and local development.
// The slice index is the type ID, which keeps the dense-ID invariant
// structural.
type Memory struct {
	mu    sync.RWMutex
	types []*models.CredentialType
}

// NewMemory constructs an empty in-memory registry store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Create(_ context.Context, ct *models.CredentialType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ct.ID = id.CredentialTypeID(len(m.types))
	clone := *ct
	m.types = append(m.types, &clone)
	return nil
}

func (m *Memory) Get(_ context.Context, typeID id.CredentialTypeID) (*models.CredentialType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if uint64(typeID) >= uint64(len(m.types)) {
		return nil, sentinel.ErrNotFound
	}
	clone := *m.types[typeID]
	return &clone, nil
}

func (m *Memory) List(_ context.Context) ([]*models.CredentialType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.CredentialType, 0, len(m.types))
	for _, ct := range m.types {
		clone := *ct
		out = append(out, &clone)
	}
	return out, nil
}

func (m *Memory) NextID(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.types)), nil
}
