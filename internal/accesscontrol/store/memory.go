package store

import (
	"context"
	"sort"
	"sync"

	"sigil/internal/accesscontrol/models"
	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// Memory is an in-memory administrative state store for tests and local
// development. It is seeded with the genesis state at construction.
type Memory struct {
	mu      sync.RWMutex
	state   models.State
	minters map[id.Address]struct{}
}

// NewMemory constructs a memory store seeded with genesis.
func NewMemory(genesis models.State) *Memory {
	return &Memory{
		state:   genesis,
		minters: make(map[id.Address]struct{}),
	}
}

func (m *Memory) State(_ context.Context) (*models.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := m.state
	return &snapshot, nil
}

func (m *Memory) SetOwner(_ context.Context, owner id.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Owner = owner
	return nil
}

func (m *Memory) SetPaused(_ context.Context, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Paused = paused
	return nil
}

func (m *Memory) SetSigner(_ context.Context, signer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Signer = signer
	return nil
}

func (m *Memory) SetTreasury(_ context.Context, treasury id.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Treasury = treasury
	return nil
}

func (m *Memory) SetBaseURI(_ context.Context, baseURI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.BaseURI = baseURI
	return nil
}

func (m *Memory) IsMinter(_ context.Context, addr id.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.minters[addr]
	return ok, nil
}

func (m *Memory) AddMinter(_ context.Context, addr id.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.minters[addr]; ok {
		return sentinel.ErrConflict
	}
	m.minters[addr] = struct{}{}
	return nil
}

func (m *Memory) RemoveMinter(_ context.Context, addr id.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.minters[addr]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.minters, addr)
	return nil
}

func (m *Memory) ListMinters(_ context.Context) ([]id.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]id.Address, 0, len(m.minters))
	for addr := range m.minters {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
