package domain

// User is a registered participant of the ledger. IDs are assigned
// sequentially starting at 1 and are never reused.
type User struct {
	ID       int64
	Address  string
	Balance  uint64
	TotalPay uint64
	// Resources holds accrued production per resource type, indexed by
	// the factory type that produces it.
	Resources []uint64
	// Referrer is the user ID of the inviter, 0 when none. Immutable
	// after registration and always references an earlier ID, so the
	// referral relation is acyclic by construction.
	Referrer int64
}

// Clone returns a deep copy of the user, detaching the resource vector.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	cp := *u
	cp.Resources = append([]uint64(nil), u.Resources...)
	return &cp
}
