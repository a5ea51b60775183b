package ledger

import (
	"fmt"

	"github.com/factoria-games/factoria/internal/domain"
)

// Register creates a user for the caller address. Attached funds become
// the initial balance. The next sequential ID is assigned, starting at 1.
func (l *Ledger) Register(address string, attached uint64) (*domain.User, error) {
	return l.register(address, attached, 0)
}

// RegisterWithRef registers the caller with an existing user as the
// referrer. The referrer link is immutable afterwards.
func (l *Ledger) RegisterWithRef(refID int64, address string, attached uint64) (*domain.User, error) {
	if refID < 1 || refID > int64(len(l.users)) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownReferrer, refID)
	}
	return l.register(address, attached, refID)
}

func (l *Ledger) register(address string, attached uint64, referrer int64) (*domain.User, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: empty address", ErrInvalidArgument)
	}
	if _, registered := l.byAddress[address]; registered {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyRegistered, address)
	}

	user := &domain.User{
		ID:        int64(len(l.users) + 1),
		Address:   address,
		Balance:   attached,
		Resources: make([]uint64, l.catalog.TypesCount()),
		Referrer:  referrer,
	}

	l.users = append(l.users, user)
	l.byAddress[address] = user.ID

	return user.Clone(), nil
}

// ReferrersOf returns the ancestor chain of the user, nearest-first,
// capped at the configured maximum depth. The sequence may be empty and
// the walk is read-only.
func (l *Ledger) ReferrersOf(userID int64) ([]int64, error) {
	user := l.user(userID)
	if user == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownUser, userID)
	}

	ids := make([]int64, 0, l.maxDepth)
	for _, ancestor := range l.ancestors(user, l.maxDepth) {
		ids = append(ids, ancestor.ID)
	}
	return ids, nil
}

// ancestors walks the referrer links up to depth hops. Links always
// point at earlier IDs, so the walk is finite without cycle checks.
func (l *Ledger) ancestors(user *domain.User, depth int) []*domain.User {
	chain := make([]*domain.User, 0, depth)
	for next := user.Referrer; next != 0 && len(chain) < depth; {
		ancestor := l.users[next-1]
		chain = append(chain, ancestor)
		next = ancestor.Referrer
	}
	return chain
}
