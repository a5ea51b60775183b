package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyFactory(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 0)
	require.NoError(t, err)

	factory, receipt, err := l.BuyFactory("alice", 0, 1200, 300)
	require.NoError(t, err)

	assert.Equal(t, int64(0), factory.ID)
	assert.Equal(t, int64(1), factory.OwnerID)
	assert.Equal(t, 0, factory.Type)
	assert.Zero(t, factory.Level)
	assert.Equal(t, int64(300), factory.CollectedAt)

	user, err := l.UserInfo(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), user.Balance, "surplus stays on the balance")
	assert.Equal(t, uint64(1000), user.TotalPay)

	// No referral chain: the whole price lands in the treasury.
	assert.Equal(t, uint64(1000), l.Treasury())
	assert.Empty(t, receipt.Commissions)
	assert.Equal(t, []int64{1}, receipt.UserIDs)
	assert.Equal(t, []int64{0}, receipt.FactoryIDs)
}

func TestBuyFactorySplitFunding(t *testing.T) {
	l := newTestLedger(t)

	// Half the price at registration, the rest attached to the buy.
	_, err := l.Register("alice", 500)
	require.NoError(t, err)

	_, _, err = l.BuyFactory("alice", 0, 0, 0)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Zero(t, l.FactoriesCount())

	factory, _, err := l.BuyFactory("alice", 0, 500, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), factory.ID)

	user, err := l.UserInfo(1)
	require.NoError(t, err)
	assert.Zero(t, user.Balance)
}

func TestBuyFactoryFailures(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 10000)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		address  string
		ftype    int
		attached uint64
		wantErr  error
	}{
		{name: "unregistered caller", address: "mallory", ftype: 0, wantErr: ErrUnknownUser},
		{name: "invalid type", address: "alice", ftype: 7, wantErr: ErrInvalidArgument},
		{name: "negative type", address: "alice", ftype: -1, wantErr: ErrInvalidArgument},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := l.BuyFactory(tc.address, tc.ftype, tc.attached, 0)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, l.FactoriesCount())
		})
	}
}

func TestLevelUp(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 0)
	require.NoError(t, err)

	factory, _, err := l.BuyFactory("alice", 0, 1000, 0)
	require.NoError(t, err)

	// One minute at level 0, then level up with twice the price attached.
	upgraded, receipt, err := l.LevelUp("alice", factory.ID, 4000, 60)
	require.NoError(t, err)

	assert.Equal(t, 1, upgraded.Level)
	assert.Equal(t, int64(60), upgraded.CollectedAt)

	user, err := l.UserInfo(1)
	require.NoError(t, err)
	// A minute of level-0 production plus the level-0 completion bonus.
	assert.Equal(t, uint64(10+5), user.Resources[0])
	assert.Equal(t, uint64(2000), user.Balance, "unspent half remains")
	assert.Equal(t, uint64(3000), user.TotalPay)
	assert.Equal(t, uint64(10), receipt.Collected)

	// The next minute produces at the new rate.
	user, _, err = l.CollectResources("alice", 120)
	require.NoError(t, err)
	assert.Equal(t, uint64(10+5+20), user.Resources[0])
}

func TestLevelUpThroughAllLevels(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 100000)
	require.NoError(t, err)

	factory, _, err := l.BuyFactory("alice", 0, 0, 0)
	require.NoError(t, err)

	now := int64(0)
	for level := 1; level < l.Catalog().LevelsCount(); level++ {
		now += 60
		_, _, err := l.LevelUp("alice", factory.ID, 0, now)
		require.NoError(t, err)
	}

	now += 60
	user, _, err := l.CollectResources("alice", now)
	require.NoError(t, err)

	// One minute at every level plus every completed level's bonus.
	assert.Equal(t, uint64(10+20+40+5+8), user.Resources[0])

	_, _, err = l.LevelUp("alice", factory.ID, 0, now)
	assert.ErrorIs(t, err, ErrMaxLevelReached)
}

func TestLevelUpUnauthorized(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 1000)
	require.NoError(t, err)
	_, err = l.Register("bob", 10000)
	require.NoError(t, err)

	factory, _, err := l.BuyFactory("alice", 0, 0, 0)
	require.NoError(t, err)

	_, _, err = l.LevelUp("bob", factory.ID, 0, 60)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = l.LevelUp("alice", 42, 0, 60)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLevelUpInsufficientFundsLeavesStateUntouched(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 1000)
	require.NoError(t, err)

	factory, _, err := l.BuyFactory("alice", 0, 0, 0)
	require.NoError(t, err)

	_, _, err = l.LevelUp("alice", factory.ID, 1999, 60)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing moved: no collection, no level change, no bonus.
	current, err := l.Factory(factory.ID)
	require.NoError(t, err)
	assert.Zero(t, current.Level)
	assert.Equal(t, int64(0), current.CollectedAt)

	user, err := l.UserInfo(1)
	require.NoError(t, err)
	assert.Zero(t, user.Resources[0])
	assert.Zero(t, user.Balance)
}
