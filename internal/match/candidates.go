package match

import (
	"github.com/bonktools/bonkscan/internal/strategy"
	"github.com/bonktools/bonkscan/internal/templates"
)

// profileOverlapFloor is the minimum color-histogram overlap between a cell
// and a template for the template to survive rarity-first narrowing.
const profileOverlapFloor = 0.5

// candidatesFor narrows the template set for one cell according to the
// strategy's filtering mode. Narrowing never returns an empty set while
// templates exist: when a filter eliminates everything, the full set is
// used so a bad border or color read costs time, not a miss.
func candidatesFor(store *templates.Store, cell *Cell, strat strategy.Strategy) []*templates.Entry {
	all := store.All()
	if len(all) == 0 {
		return nil
	}

	switch strat.ColorFiltering {
	case strategy.FilterRarityFirst:
		if cell.Rarity == "" {
			return all
		}
		pool := store.ByRarity(cell.Rarity)
		if cell.Profile != nil {
			narrowed := pool[:0:0]
			for _, entry := range pool {
				if entry.Profile.Overlap(*cell.Profile) >= profileOverlapFloor {
					narrowed = append(narrowed, entry)
				}
			}
			pool = narrowed
		}
		if len(pool) == 0 {
			return all
		}
		return pool

	case strategy.FilterColorFirst:
		if cell.Profile == nil {
			return all
		}
		pool := store.ByColor(cell.Profile.Dominant)
		if len(pool) == 0 {
			return all
		}
		return pool
	}

	return all
}
