package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstPurchaseCommissionOverFullChain(t *testing.T) {
	l := newTestLedger(t)
	buyer := registerChain(t, l, 6)

	price, err := l.Catalog().Price(0, 0)
	require.NoError(t, err)

	_, receipt, err := l.BuyFactory(buyer, 0, price, 0)
	require.NoError(t, err)

	percents, err := l.Schedules().Percents(ScheduleFirstPurchase)
	require.NoError(t, err)

	referrers, err := l.ReferrersOf(6)
	require.NoError(t, err)

	var paid uint64
	for depth, id := range referrers {
		want := price * percents[depth] / 10000
		paid += want

		ancestor, err := l.UserInfo(id)
		require.NoError(t, err)
		assert.Equal(t, want, ancestor.Balance, "depth %d", depth)
	}

	assert.LessOrEqual(t, paid, price)
	assert.Equal(t, price-paid, l.Treasury(), "remainder stays with the treasury")
	assert.Len(t, receipt.Commissions, len(referrers))
	for depth, commission := range receipt.Commissions {
		assert.Equal(t, depth, commission.Depth)
		assert.Equal(t, referrers[depth], commission.UserID)
	}
}

func TestCommissionFlatOnOriginalAmount(t *testing.T) {
	l := newTestLedger(t)
	buyer := registerChain(t, l, 3)

	_, receipt, err := l.BuyFactory(buyer, 0, 1000, 0)
	require.NoError(t, err)

	// Every depth is cut from the original 1000, not from a remainder.
	require.Len(t, receipt.Commissions, 2)
	assert.Equal(t, uint64(1000*500/10000), receipt.Commissions[0].Amount)
	assert.Equal(t, uint64(1000*300/10000), receipt.Commissions[1].Amount)

	// The unpaid deeper depths are retained, not redistributed.
	assert.Equal(t, uint64(1000-50-30), l.Treasury())
}

func TestLevelUpPaysLoyaltySchedule(t *testing.T) {
	l := newTestLedger(t)
	buyer := registerChain(t, l, 2)

	factory, _, err := l.BuyFactory(buyer, 0, 1000, 0)
	require.NoError(t, err)

	treasuryAfterBuy := l.Treasury()

	_, receipt, err := l.LevelUp(buyer, factory.ID, 2000, 60)
	require.NoError(t, err)

	// Direct referrer gets the loyalty cut of the level price.
	require.Len(t, receipt.Commissions, 1)
	assert.Equal(t, uint64(2000*300/10000), receipt.Commissions[0].Amount)

	referrer, err := l.UserInfo(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000*500/10000+2000*300/10000), referrer.Balance)

	assert.Equal(t, treasuryAfterBuy+2000-60, l.Treasury())
}

func TestCommissionExactAtMaxCatalogPrice(t *testing.T) {
	catalog, err := NewCatalog([][]LevelSpec{
		{{Price: maxPrice, ProductsPerMinute: 1}},
	}, []uint64{1})
	require.NoError(t, err)

	schedules, err := NewScheduleSet(
		map[ScheduleID]Schedule{ScheduleFirstPurchase: {10000}},
		map[Event]ScheduleID{EventFirstPurchase: ScheduleFirstPurchase},
		maxDepth,
	)
	require.NoError(t, err)

	l, err := New(Config{
		Owner:            ownerAddress,
		MaxReferralDepth: maxDepth,
		Catalog:          catalog,
		Schedules:        schedules,
	})
	require.NoError(t, err)

	_, err = l.Register("root", 0)
	require.NoError(t, err)
	_, err = l.RegisterWithRef(1, "buyer", maxPrice)
	require.NoError(t, err)

	// A full 10000 basis-point cut of the largest allowed price pays the
	// exact amount; nothing wraps and nothing leaks to the treasury.
	_, receipt, err := l.BuyFactory("buyer", 0, 0, 0)
	require.NoError(t, err)

	require.Len(t, receipt.Commissions, 1)
	assert.Equal(t, uint64(maxPrice), receipt.Commissions[0].Amount)

	referrer, err := l.UserInfo(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(maxPrice), referrer.Balance)
	assert.Zero(t, l.Treasury())
}

func TestCommissionWithoutReferrers(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 1000)
	require.NoError(t, err)

	_, receipt, err := l.BuyFactory("alice", 0, 0, 0)
	require.NoError(t, err)

	assert.Empty(t, receipt.Commissions)
	assert.Equal(t, uint64(1000), l.Treasury())
}
