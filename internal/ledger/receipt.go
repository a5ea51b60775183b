package ledger

import "github.com/factoria-games/factoria/internal/domain"

// Commission is one ancestor credit produced by a distribution.
type Commission struct {
	UserID int64
	Depth  int
	Amount uint64
}

// Receipt enumerates everything a committed operation changed, so the
// host can persist exactly the touched records and report telemetry.
type Receipt struct {
	// UserIDs lists users whose records changed, payer first.
	UserIDs []int64
	// FactoryIDs lists factories created or advanced.
	FactoryIDs []int64
	// Commissions lists referral credits paid out of the call's payment.
	Commissions []Commission
	// Collected is the total production credited during the call.
	Collected uint64
	// TreasuryChanged reports whether the reserve moved.
	TreasuryChanged bool
	// Payout is set when the call settled a resource sale.
	Payout *domain.Payout
}

func (r *Receipt) touchUser(id int64) {
	for _, existing := range r.UserIDs {
		if existing == id {
			return
		}
	}
	r.UserIDs = append(r.UserIDs, id)
}
