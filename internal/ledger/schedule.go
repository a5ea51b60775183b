package ledger

import "fmt"

// basisPointDenominator is the whole against which commission percents
// are expressed.
const basisPointDenominator = 10000

// ScheduleID names one of the commission percentage tables.
type ScheduleID int

const (
	ScheduleFirstPurchase ScheduleID = iota
	ScheduleLoyalty
	ScheduleUltraPremium

	scheduleCount
)

// String implements fmt.Stringer for logging and metrics labels.
func (id ScheduleID) String() string {
	switch id {
	case ScheduleFirstPurchase:
		return "first_purchase"
	case ScheduleLoyalty:
		return "loyalty"
	case ScheduleUltraPremium:
		return "ultra_premium"
	default:
		return fmt.Sprintf("schedule(%d)", int(id))
	}
}

// Schedule is a depth-indexed commission table in basis points. Index 0
// is the direct referrer.
type Schedule []uint64

// Event is a payment event category. Schedules are bound to events
// explicitly through configuration, never inferred.
type Event string

const (
	EventFirstPurchase Event = "first_purchase"
	EventLevelUp       Event = "level_up"
)

// ScheduleSet holds the three commission tables and the event binding.
type ScheduleSet struct {
	tables  [scheduleCount]Schedule
	byEvent map[Event]ScheduleID
}

// NewScheduleSet validates and builds a schedule set. Each table must
// distribute at most the whole payment (sum of percents ≤ 10000) and
// may not be deeper than the referral walk limit.
func NewScheduleSet(tables map[ScheduleID]Schedule, byEvent map[Event]ScheduleID, maxDepth int) (*ScheduleSet, error) {
	set := &ScheduleSet{byEvent: make(map[Event]ScheduleID, len(byEvent))}

	for id, table := range tables {
		if id < 0 || id >= scheduleCount {
			return nil, fmt.Errorf("%w: schedule id %d", ErrInvalidArgument, int(id))
		}

		if len(table) > maxDepth {
			return nil, fmt.Errorf("%w: schedule %s is deeper than the referral limit %d", ErrInvalidArgument, id, maxDepth)
		}

		var sum uint64
		for _, percent := range table {
			sum += percent
		}
		if sum > basisPointDenominator {
			return nil, fmt.Errorf("%w: schedule %s distributes %d basis points", ErrInvalidArgument, id, sum)
		}

		set.tables[id] = append(Schedule(nil), table...)
	}

	for event, id := range byEvent {
		if id < 0 || id >= scheduleCount {
			return nil, fmt.Errorf("%w: event %q bound to schedule %d", ErrInvalidArgument, event, int(id))
		}
		set.byEvent[event] = id
	}

	return set, nil
}

// Percents returns the percentage table of the schedule.
func (s *ScheduleSet) Percents(id ScheduleID) (Schedule, error) {
	if id < 0 || id >= scheduleCount {
		return nil, fmt.Errorf("%w: schedule id %d", ErrInvalidArgument, int(id))
	}
	return append(Schedule(nil), s.tables[id]...), nil
}

// ForEvent returns the schedule bound to the payment event, if any.
func (s *ScheduleSet) ForEvent(event Event) (ScheduleID, bool) {
	id, ok := s.byEvent[event]
	return id, ok
}
