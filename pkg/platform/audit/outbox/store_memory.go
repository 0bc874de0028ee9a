package outbox

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is an outbox store for tests and single-process deployments
// without PostgreSQL.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Entry
}

// NewInMemoryStore constructs an empty in-memory outbox store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[uuid.UUID]*Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.entries[entry.ID] = &clone
	return nil
}

func (s *InMemoryStore) FetchUnprocessed(_ context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]*Entry, 0)
	for _, entry := range s.entries {
		if entry.IsPending() {
			clone := *entry
			pending = append(pending, &clone)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *InMemoryStore) MarkProcessed(_ context.Context, id uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || !entry.IsPending() {
		return fmt.Errorf("outbox entry not found or already processed: %s", id)
	}
	entry.ProcessedAt = &processedAt
	return nil
}

func (s *InMemoryStore) CountPending(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, entry := range s.entries {
		if entry.IsPending() {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, entry := range s.entries {
		if entry.ProcessedAt != nil && entry.ProcessedAt.Before(before) {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}
