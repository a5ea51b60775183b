// Package store persists ledger state. The ledger itself is resident in
// memory; the store records committed operations and hands the state
// back at boot.
package store

import (
	"context"

	"github.com/factoria-games/factoria/internal/domain"
)

// Snapshot is the full persisted state of the ledger.
type Snapshot struct {
	Users     []*domain.User
	Factories []*domain.Factory
	Treasury  uint64
}

// Mutation is the set of rows touched by one committed ledger operation.
// Users and factories are full records to upsert. A nil Treasury means
// the reserve did not change. A non-nil Payout is journaled in the same
// transaction so custody settlement can never outrun durability.
type Mutation struct {
	Users     []*domain.User
	Factories []*domain.Factory
	Treasury  *uint64
	Payout    *domain.Payout
}

// Empty reports whether the mutation carries nothing to write.
func (m *Mutation) Empty() bool {
	return m == nil ||
		(len(m.Users) == 0 && len(m.Factories) == 0 && m.Treasury == nil && m.Payout == nil)
}

// Store is the durable side of the ledger. Apply must be atomic: either
// the whole mutation lands or none of it does.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Apply(ctx context.Context, m *Mutation) error
}
