package ledger

import (
	"fmt"

	"github.com/factoria-games/factoria/internal/domain"
)

// Deposit credits attached funds to the caller's balance. It has no
// other effect; a zero deposit is a valid no-op.
func (l *Ledger) Deposit(address string, amount uint64) (*domain.User, error) {
	user, err := l.userByAddress(address)
	if err != nil {
		return nil, err
	}

	balance, err := addFunds(user.Balance, amount)
	if err != nil {
		return nil, err
	}

	user.Balance = balance
	return user.Clone(), nil
}

// SellResources converts the caller's whole balance of one resource
// type into currency at the catalog sale price. The proceeds are paid
// out of the treasury reserve and leave the system through custody;
// they never land on the internal balance.
func (l *Ledger) SellResources(address string, resourceType int) (*domain.Payout, *Receipt, error) {
	user, err := l.userByAddress(address)
	if err != nil {
		return nil, nil, err
	}

	price, err := l.catalog.ResourcePrice(resourceType)
	if err != nil {
		return nil, nil, err
	}

	units := user.Resources[resourceType]
	proceeds := units * price
	if units != 0 && proceeds/units != price {
		return nil, nil, fmt.Errorf("%w: proceeds overflow", ErrInvalidArgument)
	}
	if proceeds > l.treasury {
		return nil, nil, fmt.Errorf("%w: reserve %d, payout %d", ErrInsufficientTreasury, l.treasury, proceeds)
	}

	// All preconditions hold, commit.
	user.Resources[resourceType] = 0
	l.treasury -= proceeds

	payout := &domain.Payout{
		UserID:       user.ID,
		Address:      user.Address,
		ResourceType: resourceType,
		Units:        units,
		Amount:       proceeds,
	}

	receipt := &Receipt{
		TreasuryChanged: proceeds > 0,
		Payout:          payout,
	}
	receipt.touchUser(user.ID)

	return payout, receipt, nil
}

// FundTreasury seeds the payout reserve. Owner only; resource sales
// cannot settle before the reserve covers them.
func (l *Ledger) FundTreasury(address string, amount uint64) error {
	if address != l.owner {
		return fmt.Errorf("%w: treasury deposits are owner-only", ErrUnauthorized)
	}

	reserve, err := addFunds(l.treasury, amount)
	if err != nil {
		return err
	}

	l.treasury = reserve
	return nil
}
