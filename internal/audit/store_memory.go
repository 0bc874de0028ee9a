package audit

import (
	"context"
	"sync"

	id "sigil/pkg/domain"
)

// InMemoryStore stores audit events in memory for tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryStore constructs an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByHolder(_ context.Context, holder id.Address) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Holder == holder || e.NewHolder == holder || e.Actor == holder {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every stored event. Test helper.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}
