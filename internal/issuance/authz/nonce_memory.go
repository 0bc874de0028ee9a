package authz

import (
	"context"
	"sync"

	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// InMemoryNonceStore is a nonce store for tests and local development.
type InMemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[id.Address]uint64
}

// NewInMemoryNonceStore constructs an empty in-memory nonce store.
func NewInMemoryNonceStore() *InMemoryNonceStore {
	return &InMemoryNonceStore{nonces: make(map[id.Address]uint64)}
}

func (s *InMemoryNonceStore) Current(_ context.Context, holder id.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonces[holder], nil
}

func (s *InMemoryNonceStore) Consume(_ context.Context, holder id.Address, expected uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nonces[holder] != expected {
		return sentinel.ErrStaleNonce
	}
	s.nonces[holder] = expected + 1
	return nil
}
