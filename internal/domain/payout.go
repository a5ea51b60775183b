package domain

import "time"

// Payout records a resource sale settled against the treasury. The
// ledger decides the amount; moving the funds is the custody layer's
// job, keyed by Reference.
type Payout struct {
	Reference    string
	UserID       int64
	Address      string
	ResourceType int
	Units        uint64
	Amount       uint64
	CreatedAt    time.Time
}
