package config

import (
	"fmt"

	"github.com/factoria-games/factoria/internal/ledger"
)

var scheduleNames = map[string]ledger.ScheduleID{
	"first_purchase": ledger.ScheduleFirstPurchase,
	"loyalty":        ledger.ScheduleLoyalty,
	"ultra_premium":  ledger.ScheduleUltraPremium,
}

// Build turns the declarative economy tables into a validated ledger
// configuration.
func (c LedgerConfig) Build() (ledger.Config, error) {
	levels := make([][]ledger.LevelSpec, 0, len(c.Factories))
	for _, factory := range c.Factories {
		rows := make([]ledger.LevelSpec, 0, len(factory.Levels))
		for _, row := range factory.Levels {
			rows = append(rows, ledger.LevelSpec{
				Price:             row.Price,
				ProductsPerMinute: row.ProductsPerMinute,
				BonusPerMinute:    row.BonusPerMinute,
			})
		}
		levels = append(levels, rows)
	}

	catalog, err := ledger.NewCatalog(levels, c.ResourcePrices)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("build catalog: %w", err)
	}

	tables := make(map[ledger.ScheduleID]ledger.Schedule, len(c.Schedules))
	for name, percents := range c.Schedules {
		id, ok := scheduleNames[name]
		if !ok {
			return ledger.Config{}, fmt.Errorf("unknown schedule %q", name)
		}
		tables[id] = percents
	}

	byEvent := make(map[ledger.Event]ledger.ScheduleID, len(c.Events))
	for event, name := range c.Events {
		id, ok := scheduleNames[name]
		if !ok {
			return ledger.Config{}, fmt.Errorf("event %q bound to unknown schedule %q", event, name)
		}
		byEvent[ledger.Event(event)] = id
	}

	schedules, err := ledger.NewScheduleSet(tables, byEvent, c.MaxReferralDepth)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("build schedules: %w", err)
	}

	return ledger.Config{
		Owner:            c.Owner,
		MaxReferralDepth: c.MaxReferralDepth,
		Catalog:          catalog,
		Schedules:        schedules,
	}, nil
}
