// Package ledger implements the deterministic factory-tycoon state
// machine: user registration with referral links, factory purchases and
// level-ups, lazy per-minute production accrual, multi-level commission
// distribution and resource sales against the treasury reserve.
//
// The package holds no clock, performs no I/O and starts no goroutines.
// Time enters every time-dependent operation as an explicit unix-second
// parameter sampled once per call by the host. Every operation either
// fully commits or returns an error having changed nothing.
package ledger

import (
	"fmt"
	"sort"

	"github.com/factoria-games/factoria/internal/domain"
)

// Config carries the deployment-fixed parameters of a ledger instance.
type Config struct {
	// Owner is the host identity allowed to seed the treasury.
	Owner string
	// MaxReferralDepth caps the ancestor walk of referrersOf.
	MaxReferralDepth int
	Catalog          *Catalog
	Schedules        *ScheduleSet
}

// Ledger is the resident state of the economy. It is not safe for
// concurrent use; the host serializes calls, matching the
// single-call-atomic execution model.
type Ledger struct {
	owner     string
	maxDepth  int
	catalog   *Catalog
	schedules *ScheduleSet

	users     []*domain.User // users[i].ID == i+1
	byAddress map[string]int64
	factories []*domain.Factory // factories[i].ID == i
	byOwner   map[int64][]int64
	treasury  uint64
}

// New creates an empty ledger from the deployment configuration.
func New(cfg Config) (*Ledger, error) {
	if cfg.Owner == "" {
		return nil, fmt.Errorf("%w: empty owner address", ErrInvalidArgument)
	}
	if cfg.MaxReferralDepth <= 0 {
		return nil, fmt.Errorf("%w: max referral depth %d", ErrInvalidArgument, cfg.MaxReferralDepth)
	}
	if cfg.Catalog == nil || cfg.Schedules == nil {
		return nil, fmt.Errorf("%w: catalog and schedules are required", ErrInvalidArgument)
	}

	return &Ledger{
		owner:     cfg.Owner,
		maxDepth:  cfg.MaxReferralDepth,
		catalog:   cfg.Catalog,
		schedules: cfg.Schedules,
		byAddress: make(map[string]int64),
		byOwner:   make(map[int64][]int64),
	}, nil
}

// Owner returns the owner address.
func (l *Ledger) Owner() string {
	return l.owner
}

// Treasury returns the retained reserve that funds resource payouts.
func (l *Ledger) Treasury() uint64 {
	return l.treasury
}

// Catalog exposes the read-only configuration tables.
func (l *Ledger) Catalog() *Catalog {
	return l.catalog
}

// Schedules exposes the commission schedule set.
func (l *Ledger) Schedules() *ScheduleSet {
	return l.schedules
}

// UsersCount returns the number of registered users.
func (l *Ledger) UsersCount() int {
	return len(l.users)
}

// FactoriesCount returns the number of factories ever created.
func (l *Ledger) FactoriesCount() int {
	return len(l.factories)
}

// UserInfo returns a copy of the user record.
func (l *Ledger) UserInfo(id int64) (*domain.User, error) {
	user := l.user(id)
	if user == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownUser, id)
	}
	return user.Clone(), nil
}

// UserByAddress returns a copy of the user registered under the address.
func (l *Ledger) UserByAddress(address string) (*domain.User, error) {
	user, err := l.userByAddress(address)
	if err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// Factory returns a copy of the factory record.
func (l *Ledger) Factory(id int64) (*domain.Factory, error) {
	factory := l.factory(id)
	if factory == nil {
		return nil, fmt.Errorf("%w: factory %d", ErrInvalidArgument, id)
	}
	return factory.Clone(), nil
}

// FactoriesOf returns copies of all factories owned by the user, in
// creation order.
func (l *Ledger) FactoriesOf(userID int64) ([]*domain.Factory, error) {
	if l.user(userID) == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownUser, userID)
	}

	ids := l.byOwner[userID]
	out := make([]*domain.Factory, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.factories[id].Clone())
	}
	return out, nil
}

// Restore replaces the resident state with a previously persisted one.
// Used at boot and after a failed durable write, when the stored state
// is the authoritative one.
func (l *Ledger) Restore(users []*domain.User, factories []*domain.Factory, treasury uint64) error {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	sort.Slice(factories, func(i, j int) bool { return factories[i].ID < factories[j].ID })

	byAddress := make(map[string]int64, len(users))
	restored := make([]*domain.User, 0, len(users))
	for i, user := range users {
		if user.ID != int64(i+1) {
			return fmt.Errorf("%w: user ids are not sequential at %d", ErrInvalidArgument, user.ID)
		}
		if user.Address == "" {
			return fmt.Errorf("%w: user %d has no address", ErrInvalidArgument, user.ID)
		}
		if _, dup := byAddress[user.Address]; dup {
			return fmt.Errorf("%w: duplicate address %q", ErrInvalidArgument, user.Address)
		}
		if user.Referrer < 0 || user.Referrer >= user.ID {
			return fmt.Errorf("%w: user %d refers to %d", ErrInvalidArgument, user.ID, user.Referrer)
		}
		if len(user.Resources) != l.catalog.TypesCount() {
			return fmt.Errorf("%w: user %d has %d resource slots, want %d", ErrInvalidArgument, user.ID, len(user.Resources), l.catalog.TypesCount())
		}

		byAddress[user.Address] = user.ID
		restored = append(restored, user.Clone())
	}

	byOwner := make(map[int64][]int64)
	restoredFactories := make([]*domain.Factory, 0, len(factories))
	for i, factory := range factories {
		if factory.ID != int64(i) {
			return fmt.Errorf("%w: factory ids are not sequential at %d", ErrInvalidArgument, factory.ID)
		}
		if factory.OwnerID < 1 || factory.OwnerID > int64(len(restored)) {
			return fmt.Errorf("%w: factory %d owned by unknown user %d", ErrInvalidArgument, factory.ID, factory.OwnerID)
		}
		if _, err := l.catalog.ProductsPerMinute(factory.Type, factory.Level); err != nil {
			return fmt.Errorf("factory %d: %w", factory.ID, err)
		}

		byOwner[factory.OwnerID] = append(byOwner[factory.OwnerID], factory.ID)
		restoredFactories = append(restoredFactories, factory.Clone())
	}

	l.users = restored
	l.byAddress = byAddress
	l.factories = restoredFactories
	l.byOwner = byOwner
	l.treasury = treasury

	return nil
}

func (l *Ledger) user(id int64) *domain.User {
	if id < 1 || id > int64(len(l.users)) {
		return nil
	}
	return l.users[id-1]
}

func (l *Ledger) factory(id int64) *domain.Factory {
	if id < 0 || id >= int64(len(l.factories)) {
		return nil
	}
	return l.factories[id]
}

func (l *Ledger) userByAddress(address string) (*domain.User, error) {
	id, ok := l.byAddress[address]
	if !ok {
		return nil, fmt.Errorf("%w: address %q", ErrUnknownUser, address)
	}
	return l.users[id-1], nil
}

// addFunds guards balance arithmetic against wrap-around.
func addFunds(balance, amount uint64) (uint64, error) {
	sum := balance + amount
	if sum < balance {
		return 0, fmt.Errorf("%w: balance overflow", ErrInvalidArgument)
	}
	return sum, nil
}
