package store

import (
	"context"
	"sync"

	"github.com/factoria-games/factoria/internal/domain"
)

// MemoryStore is an in-process Store used in tests and in deployments
// that accept losing state on restart.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[int64]*domain.User
	factories map[int64]*domain.Factory
	treasury  uint64
	payouts   []*domain.Payout
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int64]*domain.User),
		factories: make(map[int64]*domain.Factory),
	}
}

// Load returns a snapshot of everything applied so far.
func (s *MemoryStore) Load(_ context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := &Snapshot{Treasury: s.treasury}
	for _, user := range s.users {
		snapshot.Users = append(snapshot.Users, user.Clone())
	}
	for _, factory := range s.factories {
		snapshot.Factories = append(snapshot.Factories, factory.Clone())
	}

	return snapshot, nil
}

// Apply stores the mutation.
func (s *MemoryStore) Apply(_ context.Context, m *Mutation) error {
	if m.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range m.Users {
		s.users[user.ID] = user.Clone()
	}
	for _, factory := range m.Factories {
		s.factories[factory.ID] = factory.Clone()
	}
	if m.Treasury != nil {
		s.treasury = *m.Treasury
	}
	if m.Payout != nil {
		payout := *m.Payout
		s.payouts = append(s.payouts, &payout)
	}

	return nil
}

// Payouts returns the journaled payouts in apply order.
func (s *MemoryStore) Payouts() []*domain.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Payout, len(s.payouts))
	copy(out, s.payouts)
	return out
}
