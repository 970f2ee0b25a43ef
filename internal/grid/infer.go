package grid

import (
	"image"
	"image/color"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/imaging"
)

// Layout is the inferred inventory grid: the hotbar band, the estimated
// icon size, and one cell region per slot. Confidence aggregates the band
// and scale signals; it never reaches zero because every step falls back to
// a usable heuristic.
type Layout struct {
	Band     Band          `json:"band"`
	IconSize int           `json:"icon_size"`
	Scale    ScaleResult   `json:"scale"`
	Cells    []imaging.ROI `json:"cells"`
	// Confidence is the combined band and scale confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Infer locates the inventory row and derives candidate cell regions. It
// never fails: degraded inputs yield a fallback layout with low confidence.
func Infer(img image.Image, borders map[catalog.Rarity]color.RGBA) *Layout {
	bounds := img.Bounds()

	band := DetectHotbar(img, borders)
	edges := DetectIconEdges(img, band.ROI)
	scale := DetectIconScale(edges, band.Confidence, bounds.Dx(), bounds.Dy())
	cells := GenerateRow(bounds, band.ROI, scale.IconSize)

	return &Layout{
		Band:       band,
		IconSize:   scale.IconSize,
		Scale:      scale,
		Cells:      cells,
		Confidence: (band.Confidence + scale.Confidence) / 2,
	}
}
