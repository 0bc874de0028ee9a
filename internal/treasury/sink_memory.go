package treasury

import (
	"context"
	"sync"
	"time"

	id "sigil/pkg/domain"
)

// InMemorySink records receipts in memory for tests and local development.
type InMemorySink struct {
	mu       sync.Mutex
	receipts []Receipt
}

// NewInMemorySink constructs an empty in-memory sink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

func (s *InMemorySink) Forward(_ context.Context, from, treasury id.Address, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, Receipt{
		From:       from,
		Treasury:   treasury,
		Value:      value,
		ReceivedAt: time.Now(),
	})
	return nil
}

// Receipts returns a copy of every recorded receipt. Test helper.
func (s *InMemorySink) Receipts() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Receipt{}, s.receipts...)
}
