package ledger

import (
	"fmt"

	"github.com/factoria-games/factoria/internal/domain"
)

// BuyFactory purchases a level-0 factory of the given type for the
// caller. The price is drawn from the combined pool of balance and
// attached funds; any surplus stays in the balance. The first-purchase
// commission schedule is distributed over the caller's referral chain.
func (l *Ledger) BuyFactory(address string, ftype int, attached uint64, now int64) (*domain.Factory, *Receipt, error) {
	user, err := l.userByAddress(address)
	if err != nil {
		return nil, nil, err
	}

	price, err := l.catalog.Price(ftype, 0)
	if err != nil {
		return nil, nil, err
	}

	pool, err := addFunds(user.Balance, attached)
	if err != nil {
		return nil, nil, err
	}
	if pool < price {
		return nil, nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, pool, price)
	}

	// All preconditions hold, commit.
	user.Balance = pool - price
	user.TotalPay += price

	receipt := &Receipt{TreasuryChanged: true}
	receipt.touchUser(user.ID)
	receipt.Commissions = l.distribute(user, price, EventFirstPurchase, receipt)

	factory := &domain.Factory{
		ID:          int64(len(l.factories)),
		OwnerID:     user.ID,
		Type:        ftype,
		Level:       0,
		CollectedAt: now,
	}
	l.factories = append(l.factories, factory)
	l.byOwner[user.ID] = append(l.byOwner[user.ID], factory.ID)
	receipt.FactoryIDs = append(receipt.FactoryIDs, factory.ID)

	return factory.Clone(), receipt, nil
}

// LevelUp advances the factory one level. Pending production at the old
// rate is collected first, the next level's price is debited and
// distributed over the level-up schedule, then the level increments,
// the accrual baseline resets and the completed level's one-time bonus
// is credited straight into resources. A factory only ever moves
// forward; the top catalog level is terminal.
func (l *Ledger) LevelUp(address string, factoryID int64, attached uint64, now int64) (*domain.Factory, *Receipt, error) {
	user, err := l.userByAddress(address)
	if err != nil {
		return nil, nil, err
	}

	factory := l.factory(factoryID)
	if factory == nil {
		return nil, nil, fmt.Errorf("%w: factory %d", ErrInvalidArgument, factoryID)
	}
	if factory.OwnerID != user.ID {
		return nil, nil, fmt.Errorf("%w: factory %d", ErrUnauthorized, factoryID)
	}
	if factory.Level+1 >= l.catalog.LevelsCount() {
		return nil, nil, fmt.Errorf("%w: factory %d at level %d", ErrMaxLevelReached, factoryID, factory.Level)
	}

	cost, err := l.catalog.Price(factory.Type, factory.Level+1)
	if err != nil {
		return nil, nil, err
	}

	pool, err := addFunds(user.Balance, attached)
	if err != nil {
		return nil, nil, err
	}
	if pool < cost {
		return nil, nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, pool, cost)
	}

	bonus, err := l.catalog.BonusPerMinute(factory.Type, factory.Level)
	if err != nil {
		return nil, nil, err
	}

	// All preconditions hold, commit.
	receipt := &Receipt{TreasuryChanged: true}
	receipt.touchUser(user.ID)

	collected, _ := l.collectFactory(user, factory, now)
	receipt.Collected = collected

	user.Balance = pool - cost
	user.TotalPay += cost
	receipt.Commissions = l.distribute(user, cost, EventLevelUp, receipt)

	factory.Level++
	factory.CollectedAt = now
	user.Resources[factory.Type] += bonus

	receipt.FactoryIDs = append(receipt.FactoryIDs, factory.ID)

	return factory.Clone(), receipt, nil
}
