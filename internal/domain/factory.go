package domain

// Factory is a production facility owned by a user. Factory IDs are
// global, assigned sequentially starting at 0, and never reused.
type Factory struct {
	ID      int64
	OwnerID int64
	Type    int
	Level   int
	// CollectedAt is the accrual baseline in unix seconds: production is
	// measured from this instant. Advanced only by whole collected
	// minutes and reset on level-up, it never exceeds the call time.
	CollectedAt int64
}

// Clone returns a copy of the factory.
func (f *Factory) Clone() *Factory {
	if f == nil {
		return nil
	}

	cp := *f
	return &cp
}
