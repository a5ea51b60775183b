package service

import (
	"github.com/factoria-games/factoria/internal/domain"
	"github.com/factoria-games/factoria/internal/ledger"
)

// Read accessors. The ledger is not safe for concurrent use, so reads
// take the same lock as mutations.

// UserInfo returns the user record by ID.
func (s *Service) UserInfo(id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.UserInfo(id)
}

// UserByAddress returns the user registered under the address.
func (s *Service) UserByAddress(address string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.UserByAddress(address)
}

// FactoryInfo returns the factory record by ID.
func (s *Service) FactoryInfo(id int64) (*domain.Factory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Factory(id)
}

// FactoriesOf returns the user's factories in creation order.
func (s *Service) FactoriesOf(userID int64) ([]*domain.Factory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.FactoriesOf(userID)
}

// ReferrersOf returns the user's ancestor chain, nearest-first.
func (s *Service) ReferrersOf(userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ReferrersOf(userID)
}

// PendingResources reports a factory's unrealized production at the
// current clock reading.
func (s *Service) PendingResources(factoryID int64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ResourcesAtTime(factoryID, s.clk.Now().Unix())
}

// Owner returns the owner address.
func (s *Service) Owner() string {
	return s.ledger.Owner()
}

// Treasury returns the current payout reserve.
func (s *Service) Treasury() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Treasury()
}

// CatalogPrice returns the purchase price of a type and level.
func (s *Service) CatalogPrice(ftype, level int) (uint64, error) {
	return s.ledger.Catalog().Price(ftype, level)
}

// CatalogProduction returns the per-minute rate and the level-completion
// bonus of a type and level.
func (s *Service) CatalogProduction(ftype, level int) (rate, bonus uint64, err error) {
	catalog := s.ledger.Catalog()

	rate, err = catalog.ProductsPerMinute(ftype, level)
	if err != nil {
		return 0, 0, err
	}

	bonus, err = catalog.BonusPerMinute(ftype, level)
	if err != nil {
		return 0, 0, err
	}

	return rate, bonus, nil
}

// CatalogResourcePrice returns the sale price of one resource unit.
func (s *Service) CatalogResourcePrice(resourceType int) (uint64, error) {
	return s.ledger.Catalog().ResourcePrice(resourceType)
}

// Schedule returns the basis-point table of a commission schedule.
func (s *Service) Schedule(id ledger.ScheduleID) (ledger.Schedule, error) {
	return s.ledger.Schedules().Percents(id)
}

// CatalogSummary describes the purchasable factory types.
type CatalogSummary struct {
	Types  int
	Levels int
}

// Catalog returns the catalog dimensions.
func (s *Service) Catalog() CatalogSummary {
	return CatalogSummary{
		Types:  s.ledger.Catalog().TypesCount(),
		Levels: s.ledger.Catalog().LevelsCount(),
	}
}

// LevelInfo is one row of the public catalog listing.
type LevelInfo struct {
	Level             int    `json:"level"`
	Price             uint64 `json:"price"`
	ProductsPerMinute uint64 `json:"products_per_minute"`
	BonusPerMinute    uint64 `json:"bonus_per_minute"`
}

// TypeInfo lists the level table and sale price of one factory type.
type TypeInfo struct {
	Type          int         `json:"type"`
	ResourcePrice uint64      `json:"resource_price"`
	Levels        []LevelInfo `json:"levels"`
}

// CatalogListing returns the full catalog the way clients consume it.
func (s *Service) CatalogListing() []TypeInfo {
	catalog := s.ledger.Catalog()

	out := make([]TypeInfo, 0, catalog.TypesCount())
	for ftype := 0; ftype < catalog.TypesCount(); ftype++ {
		resourcePrice, _ := catalog.ResourcePrice(ftype)

		info := TypeInfo{
			Type:          ftype,
			ResourcePrice: resourcePrice,
			Levels:        make([]LevelInfo, 0, catalog.LevelsCount()),
		}

		for level := 0; level < catalog.LevelsCount(); level++ {
			price, _ := catalog.Price(ftype, level)
			rate, _ := catalog.ProductsPerMinute(ftype, level)
			bonus, _ := catalog.BonusPerMinute(ftype, level)

			info.Levels = append(info.Levels, LevelInfo{
				Level:             level,
				Price:             price,
				ProductsPerMinute: rate,
				BonusPerMinute:    bonus,
			})
		}

		out = append(out, info)
	}

	return out
}
