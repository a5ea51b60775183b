package ledger

import (
	"fmt"

	"github.com/factoria-games/factoria/internal/domain"
)

const secondsPerMinute = 60

// ResourcesAtTime reports the factory's pending production at the given
// instant without mutating anything: whole elapsed minutes since the
// accrual baseline times the current per-minute rate.
func (l *Ledger) ResourcesAtTime(factoryID int64, now int64) (uint64, error) {
	factory := l.factory(factoryID)
	if factory == nil {
		return 0, fmt.Errorf("%w: factory %d", ErrInvalidArgument, factoryID)
	}

	minutes := elapsedMinutes(factory.CollectedAt, now)
	rate, _ := l.catalog.ProductsPerMinute(factory.Type, factory.Level)
	return minutes * rate, nil
}

// CollectResources realizes pending production of every factory owned
// by the caller into the resource balances, in a single pass. Baselines
// advance by whole collected minutes only, so sub-minute remainders
// keep accruing toward the next boundary. Factories with no whole
// minute elapsed are untouched, which makes an immediate second call a
// no-op.
func (l *Ledger) CollectResources(address string, now int64) (*domain.User, *Receipt, error) {
	user, err := l.userByAddress(address)
	if err != nil {
		return nil, nil, err
	}

	receipt := &Receipt{}
	for _, factoryID := range l.byOwner[user.ID] {
		factory := l.factories[factoryID]
		amount, advanced := l.collectFactory(user, factory, now)
		if advanced {
			receipt.Collected += amount
			receipt.FactoryIDs = append(receipt.FactoryIDs, factory.ID)
		}
	}

	if len(receipt.FactoryIDs) > 0 {
		receipt.touchUser(user.ID)
	}

	return user.Clone(), receipt, nil
}

// collectFactory credits whole elapsed minutes of production and
// advances the baseline accordingly. The baseline never passes now.
func (l *Ledger) collectFactory(user *domain.User, factory *domain.Factory, now int64) (uint64, bool) {
	minutes := elapsedMinutes(factory.CollectedAt, now)
	if minutes == 0 {
		return 0, false
	}

	rate, _ := l.catalog.ProductsPerMinute(factory.Type, factory.Level)
	amount := minutes * rate

	user.Resources[factory.Type] += amount
	factory.CollectedAt += int64(minutes) * secondsPerMinute

	return amount, true
}

func elapsedMinutes(baseline, now int64) uint64 {
	if now <= baseline {
		return 0
	}
	return uint64(now-baseline) / secondsPerMinute
}
