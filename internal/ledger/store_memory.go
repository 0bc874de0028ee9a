package ledger

import (
	"context"
	"fmt"
	"sync"

	contracts "sigil/contracts/ledger"
	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

type balanceKey struct {
	holder id.Address
	typeID id.CredentialTypeID
}

type approvalKey struct {
	holder   id.Address
	operator id.Address
}

// InMemoryStore is a balance store for tests and local development.
type InMemoryStore struct {
	mu        sync.RWMutex
	balances  map[balanceKey]uint64
	supply    map[id.CredentialTypeID]uint64
	approvals map[approvalKey]bool
}

// NewInMemoryStore constructs an empty in-memory balance store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		balances:  make(map[balanceKey]uint64),
		supply:    make(map[id.CredentialTypeID]uint64),
		approvals: make(map[approvalKey]bool),
	}
}

func (s *InMemoryStore) Balance(_ context.Context, holder id.Address, typeID id.CredentialTypeID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[balanceKey{holder: holder, typeID: typeID}], nil
}

func (s *InMemoryStore) TotalSupply(_ context.Context, typeID id.CredentialTypeID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.supply[typeID], nil
}

func (s *InMemoryStore) Apply(_ context.Context, movement contracts.Movement) error {
	from := id.Address(movement.From)
	to := id.Address(movement.To)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every debit before mutating anything so a failed movement
	// leaves no partial state.
	if !from.IsZero() {
		debits := make(map[id.CredentialTypeID]uint64, len(movement.Entries))
		for _, e := range movement.Entries {
			debits[id.CredentialTypeID(e.TypeID)] += e.Quantity
		}
		for typeID, qty := range debits {
			if s.balances[balanceKey{holder: from, typeID: typeID}] < qty {
				return fmt.Errorf("type %d: %w", typeID, sentinel.ErrInsufficient)
			}
		}
	}

	for _, e := range movement.Entries {
		typeID := id.CredentialTypeID(e.TypeID)
		if from.IsZero() {
			s.supply[typeID] += e.Quantity
		} else {
			s.balances[balanceKey{holder: from, typeID: typeID}] -= e.Quantity
		}
		if to.IsZero() {
			s.supply[typeID] -= e.Quantity
		} else {
			s.balances[balanceKey{holder: to, typeID: typeID}] += e.Quantity
		}
	}
	return nil
}

func (s *InMemoryStore) SetApproval(_ context.Context, holder, operator id.Address, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := approvalKey{holder: holder, operator: operator}
	if approved {
		s.approvals[key] = true
	} else {
		delete(s.approvals, key)
	}
	return nil
}

func (s *InMemoryStore) IsApproved(_ context.Context, holder, operator id.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.approvals[approvalKey{holder: holder, operator: operator}], nil
}
