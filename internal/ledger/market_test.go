package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeposit(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 0)
	require.NoError(t, err)

	user, err := l.Deposit("alice", 7500)
	require.NoError(t, err)
	assert.Equal(t, uint64(7500), user.Balance)

	user, err = l.Deposit("alice", 2500)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), user.Balance)

	// A zero deposit is accepted and changes nothing.
	user, err = l.Deposit("alice", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), user.Balance)

	// Deposits never touch the reserve.
	assert.Zero(t, l.Treasury())
}

func TestDepositFailures(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Deposit("nobody", 100)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestSellResources(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.FundTreasury(ownerAddress, 100000))

	_, err := l.Register("alice", 1000)
	require.NoError(t, err)
	_, _, err = l.BuyFactory("alice", 0, 0, 0)
	require.NoError(t, err)

	// Three minutes of production, then sell the lot.
	_, _, err = l.CollectResources("alice", 180)
	require.NoError(t, err)

	reserveBefore := l.Treasury()

	payout, receipt, err := l.SellResources("alice", 0)
	require.NoError(t, err)

	assert.Equal(t, uint64(30), payout.Units)
	assert.Equal(t, uint64(30*2), payout.Amount)
	assert.Equal(t, int64(1), payout.UserID)
	assert.Equal(t, "alice", payout.Address)
	assert.Equal(t, payout, receipt.Payout)

	user, err := l.UserInfo(1)
	require.NoError(t, err)
	assert.Zero(t, user.Resources[0], "sold resources are zeroed")
	assert.Equal(t, reserveBefore-payout.Amount, l.Treasury())

	// Proceeds are paid out externally, never onto the balance.
	assert.Zero(t, user.Balance)
}

func TestSellResourcesInsufficientTreasury(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 1000)
	require.NoError(t, err)
	_, _, err = l.BuyFactory("alice", 0, 0, 0)
	require.NoError(t, err)

	_, _, err = l.CollectResources("alice", 60*60)
	require.NoError(t, err)

	// 60 minutes * 10 units * price 2 = 1200, reserve holds only the
	// 1000 purchase price.
	_, _, err = l.SellResources("alice", 0)
	require.ErrorIs(t, err, ErrInsufficientTreasury)

	user, err := l.UserInfo(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), user.Resources[0], "failed sale leaves resources untouched")
	assert.Equal(t, uint64(1000), l.Treasury())
}

func TestSellResourcesInvalidType(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Register("alice", 0)
	require.NoError(t, err)

	_, _, err = l.SellResources("alice", 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFundTreasury(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.FundTreasury(ownerAddress, 5000))
	assert.Equal(t, uint64(5000), l.Treasury())

	err := l.FundTreasury("alice", 100)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, uint64(5000), l.Treasury())
}
