package ledger

import "github.com/factoria-games/factoria/internal/domain"

// distribute splits a payment across the payer's ancestor chain using
// the schedule bound to the event. Each depth is paid a flat cut of the
// original amount, never of a shrinking remainder. Whatever the chain
// does not absorb, including rounding dust and unbound events, stays
// with the treasury. Ancestors are distinct from the payer by
// construction, so the payer never pays itself.
func (l *Ledger) distribute(payer *domain.User, amount uint64, event Event, receipt *Receipt) []Commission {
	scheduleID, bound := l.schedules.ForEvent(event)
	if !bound {
		l.treasury += amount
		return nil
	}

	percents := l.schedules.tables[scheduleID]
	ancestors := l.ancestors(payer, len(percents))

	var (
		paid        uint64
		commissions []Commission
	)
	for depth, ancestor := range ancestors {
		// amount is a catalog price, capped at construction so the
		// product cannot wrap.
		cut := amount * percents[depth] / basisPointDenominator
		if cut == 0 {
			continue
		}

		ancestor.Balance += cut
		paid += cut

		commissions = append(commissions, Commission{
			UserID: ancestor.ID,
			Depth:  depth,
			Amount: cut,
		})
		receipt.touchUser(ancestor.ID)
	}

	l.treasury += amount - paid
	return commissions
}
