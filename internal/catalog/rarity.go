package catalog

import "image/color"

// Rarity is a discrete item tier. Rarity also fixes the border color drawn
// around an item's inventory slot, which the grid and matching code use as a
// visual signal.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rarities lists all tiers in ascending order.
var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}

// borderColors is the slot border color convention, per tier.
var borderColors = map[Rarity]color.RGBA{
	RarityCommon:    {R: 0x9D, G: 0x9D, B: 0x9D, A: 0xFF},
	RarityUncommon:  {R: 0x1E, G: 0xFF, B: 0x00, A: 0xFF},
	RarityRare:      {R: 0x00, G: 0x70, B: 0xDD, A: 0xFF},
	RarityEpic:      {R: 0xA3, G: 0x35, B: 0xEE, A: 0xFF},
	RarityLegendary: {R: 0xFF, G: 0x80, B: 0x00, A: 0xFF},
}

// BorderColor returns the slot border color for a rarity tier. The second
// return is false for unknown tiers.
func BorderColor(r Rarity) (color.RGBA, bool) {
	c, ok := borderColors[r]
	return c, ok
}

// BorderColors returns the border color of every known tier, keyed by tier.
func BorderColors() map[Rarity]color.RGBA {
	out := make(map[Rarity]color.RGBA, len(borderColors))
	for k, v := range borderColors {
		out[k] = v
	}
	return out
}

// Valid reports whether r is a known rarity tier.
func (r Rarity) Valid() bool {
	_, ok := borderColors[r]
	return ok
}
