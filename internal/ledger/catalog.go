package ledger

import (
	"fmt"
	"math"
)

// maxPrice bounds catalog prices so a price times a full basis-point
// cut still fits in uint64; commission arithmetic stays exact without
// per-call overflow checks mid-commit.
const maxPrice = math.MaxUint64 / basisPointDenominator

// LevelSpec is one row of the factory catalog: the price of the level,
// the per-minute production rate at that level and the one-time bonus
// granted when the level is completed.
type LevelSpec struct {
	Price             uint64
	ProductsPerMinute uint64
	BonusPerMinute    uint64
}

// Catalog holds the deployment-fixed configuration tables: one level
// table per factory type plus the sale price per resource type. It is
// immutable after construction; every lookup rejects out-of-range
// indices instead of degrading to a default.
type Catalog struct {
	levels         [][]LevelSpec
	resourcePrices []uint64
}

// NewCatalog validates the configuration tables and builds a catalog.
// Each type must carry the same number of levels, and both price and
// production must grow strictly with the level.
func NewCatalog(levels [][]LevelSpec, resourcePrices []uint64) (*Catalog, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: catalog has no factory types", ErrInvalidArgument)
	}

	levelsCount := len(levels[0])
	if levelsCount == 0 {
		return nil, fmt.Errorf("%w: catalog has no levels", ErrInvalidArgument)
	}

	for ftype, table := range levels {
		if len(table) != levelsCount {
			return nil, fmt.Errorf("%w: type %d has %d levels, want %d", ErrInvalidArgument, ftype, len(table), levelsCount)
		}

		for level, spec := range table {
			if spec.Price == 0 || spec.ProductsPerMinute == 0 {
				return nil, fmt.Errorf("%w: type %d level %d has zero price or production", ErrInvalidArgument, ftype, level)
			}
			if spec.Price > maxPrice {
				return nil, fmt.Errorf("%w: type %d level %d price %d exceeds the commission bound", ErrInvalidArgument, ftype, level, spec.Price)
			}

			if level == 0 {
				continue
			}

			prev := table[level-1]
			if spec.Price <= prev.Price || spec.ProductsPerMinute <= prev.ProductsPerMinute {
				return nil, fmt.Errorf("%w: type %d level %d breaks monotonic growth", ErrInvalidArgument, ftype, level)
			}
		}
	}

	if len(resourcePrices) != len(levels) {
		return nil, fmt.Errorf("%w: %d resource prices for %d factory types", ErrInvalidArgument, len(resourcePrices), len(levels))
	}

	for rt, price := range resourcePrices {
		if price == 0 {
			return nil, fmt.Errorf("%w: resource %d has zero sale price", ErrInvalidArgument, rt)
		}
	}

	cloned := make([][]LevelSpec, len(levels))
	for i, table := range levels {
		cloned[i] = append([]LevelSpec(nil), table...)
	}

	return &Catalog{
		levels:         cloned,
		resourcePrices: append([]uint64(nil), resourcePrices...),
	}, nil
}

// TypesCount returns the number of factory types. Resource types share
// the same index space.
func (c *Catalog) TypesCount() int {
	return len(c.levels)
}

// LevelsCount returns the number of levels every factory type has.
func (c *Catalog) LevelsCount() int {
	return len(c.levels[0])
}

// Price returns the purchase price of the given type and level.
func (c *Catalog) Price(ftype, level int) (uint64, error) {
	spec, err := c.spec(ftype, level)
	if err != nil {
		return 0, err
	}
	return spec.Price, nil
}

// ProductsPerMinute returns the production rate of the given type and level.
func (c *Catalog) ProductsPerMinute(ftype, level int) (uint64, error) {
	spec, err := c.spec(ftype, level)
	if err != nil {
		return 0, err
	}
	return spec.ProductsPerMinute, nil
}

// BonusPerMinute returns the one-time bonus granted for completing the
// given level.
func (c *Catalog) BonusPerMinute(ftype, level int) (uint64, error) {
	spec, err := c.spec(ftype, level)
	if err != nil {
		return 0, err
	}
	return spec.BonusPerMinute, nil
}

// ResourcePrice returns the sale price of one unit of the resource.
func (c *Catalog) ResourcePrice(resourceType int) (uint64, error) {
	if resourceType < 0 || resourceType >= len(c.resourcePrices) {
		return 0, fmt.Errorf("%w: resource type %d", ErrInvalidArgument, resourceType)
	}
	return c.resourcePrices[resourceType], nil
}

func (c *Catalog) spec(ftype, level int) (LevelSpec, error) {
	if ftype < 0 || ftype >= len(c.levels) {
		return LevelSpec{}, fmt.Errorf("%w: factory type %d", ErrInvalidArgument, ftype)
	}
	if level < 0 || level >= len(c.levels[ftype]) {
		return LevelSpec{}, fmt.Errorf("%w: level %d for type %d", ErrInvalidArgument, level, ftype)
	}
	return c.levels[ftype][level], nil
}
