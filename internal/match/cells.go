package match

import (
	"image"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/imaging"
	"github.com/bonktools/bonkscan/internal/strategy"
)

const (
	// Empty-slot cutoffs. A slot with no item renders as a dark, nearly
	// flat square; either a very low mean or very low variance marks it.
	emptyMeanFloor     = 30.0
	emptyVarianceFloor = 350.0

	// borderRingWidth is how many pixels of the cell perimeter count as
	// the rarity border.
	borderRingWidth = 2

	// borderMatchFraction is the share of ring pixels that must sit near
	// one rarity's border color before the cell is attributed to it.
	borderMatchFraction = 0.25

	// borderTolerance is the per-channel distance allowed when comparing
	// ring pixels against the rarity palette.
	borderTolerance = 40

	// profileSampleStep subsamples cell pixels for color profiling.
	profileSampleStep = 2

	// interiorInset shrinks the cell before extracting the color profile
	// so the rarity border does not pollute the item's own colors.
	interiorInset = 0.15
)

// Cell is one occupied inventory slot, cropped from the screenshot with the
// features the active strategy asked for.
type Cell struct {
	Region imaging.ROI
	Image  image.Image
	Luma   []float64
	Stats  imaging.LumaStats

	// Rarity is the border-detected tier, or empty when the border was
	// ambiguous or border features were not requested.
	Rarity catalog.Rarity

	// Profile is the interior color profile, nil when color analysis is
	// off and the filtering mode does not need it.
	Profile *imaging.ColorProfile
}

// IsEmptyCell reports whether luminance statistics describe an unoccupied
// slot.
func IsEmptyCell(stats imaging.LumaStats) bool {
	return stats.Mean < emptyMeanFloor || stats.Variance < emptyVarianceFloor
}

// ExtractCells crops each region from the screenshot and derives the
// per-cell features the strategy needs. Regions that fall outside the image
// or that look like empty slots are dropped; Skipped reports how many of
// each.
func ExtractCells(img image.Image, regions []imaging.ROI, strat strategy.Strategy) ([]Cell, Skipped) {
	var skipped Skipped
	cells := make([]Cell, 0, len(regions))

	needRarity := strat.UseBorderValidation || strat.ColorFiltering == strategy.FilterRarityFirst
	needProfile := strat.ColorAnalysis != strategy.AnalysisNone ||
		strat.ColorFiltering == strategy.FilterRarityFirst ||
		strat.ColorFiltering == strategy.FilterColorFirst

	for _, region := range regions {
		cropped, err := imaging.CropROI(img, region)
		if err != nil {
			skipped.OutOfBounds++
			continue
		}

		luma := imaging.Luminance(cropped)
		stats := lumaStats(luma)
		if strat.UseEmptyCellDetection && IsEmptyCell(stats) {
			skipped.Empty++
			continue
		}

		cell := Cell{
			Region: region.ClampTo(img.Bounds()),
			Image:  cropped,
			Luma:   luma,
			Stats:  stats,
		}
		if needRarity {
			cell.Rarity = DetectBorderRarity(cropped)
		}
		if needProfile {
			p := interiorProfile(cropped, strat.ColorAnalysis)
			cell.Profile = &p
		}
		cells = append(cells, cell)
	}
	return cells, skipped
}

// Skipped counts regions dropped before scoring.
type Skipped struct {
	Empty       int `json:"empty"`
	OutOfBounds int `json:"out_of_bounds"`
}

func lumaStats(buf []float64) imaging.LumaStats {
	if len(buf) == 0 {
		return imaging.LumaStats{}
	}
	var sum float64
	for _, v := range buf {
		sum += v
	}
	mean := sum / float64(len(buf))
	var varSum float64
	for _, v := range buf {
		d := v - mean
		varSum += d * d
	}
	return imaging.LumaStats{Mean: mean, Variance: varSum / float64(len(buf))}
}

// DetectBorderRarity samples the cell's perimeter ring and attributes the
// cell to a rarity tier when enough ring pixels sit near that tier's border
// color. Returns the empty rarity when no tier clears the bar.
func DetectBorderRarity(cell image.Image) catalog.Rarity {
	bounds := cell.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 2*borderRingWidth+1 || h < 2*borderRingWidth+1 {
		return ""
	}

	palette := catalog.BorderColors()
	counts := make(map[catalog.Rarity]int, len(palette))
	total := 0

	sample := func(x, y int) {
		total++
		px := cell.At(bounds.Min.X+x, bounds.Min.Y+y)
		for r, bc := range palette {
			if imaging.ColorNear(px, bc, borderTolerance) {
				counts[r]++
			}
		}
	}

	for ring := 0; ring < borderRingWidth; ring++ {
		for x := ring; x < w-ring; x++ {
			sample(x, ring)
			sample(x, h-1-ring)
		}
		for y := ring + 1; y < h-1-ring; y++ {
			sample(ring, y)
			sample(w-1-ring, y)
		}
	}
	if total == 0 {
		return ""
	}

	var best catalog.Rarity
	bestCount := 0
	for _, r := range catalog.Rarities {
		if counts[r] > bestCount {
			best, bestCount = r, counts[r]
		}
	}
	if float64(bestCount) < borderMatchFraction*float64(total) {
		return ""
	}
	return best
}

// interiorProfile extracts the cell's color profile with the border ring
// inset away. Multi-region analysis averages the four quadrants and the
// center so a single dominant patch cannot mask the rest of the icon.
func interiorProfile(cell image.Image, analysis strategy.ColorAnalysis) imaging.ColorProfile {
	interior := insetImage(cell, interiorInset)
	if analysis != strategy.AnalysisMultiRegion {
		return imaging.ExtractProfile(interior, profileSampleStep)
	}

	b := interior.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 4 || h < 4 {
		return imaging.ExtractProfile(interior, profileSampleStep)
	}

	halfW, halfH := w/2, h/2
	regions := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+halfW, b.Min.Y+halfH),
		image.Rect(b.Min.X+halfW, b.Min.Y, b.Max.X, b.Min.Y+halfH),
		image.Rect(b.Min.X, b.Min.Y+halfH, b.Min.X+halfW, b.Max.Y),
		image.Rect(b.Min.X+halfW, b.Min.Y+halfH, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X+w/4, b.Min.Y+h/4, b.Max.X-w/4, b.Max.Y-h/4),
	}

	merged := imaging.ColorProfile{Histogram: make(map[imaging.ColorName]float64)}
	for _, rect := range regions {
		sub, err := imaging.CropROI(interior, imaging.ROI{
			X: rect.Min.X, Y: rect.Min.Y,
			Width: rect.Dx(), Height: rect.Dy(),
		})
		if err != nil {
			continue
		}
		p := imaging.ExtractProfile(sub, profileSampleStep)
		for name, share := range p.Histogram {
			merged.Histogram[name] += share / float64(len(regions))
		}
	}

	var bestShare, secondShare float64
	for name, share := range merged.Histogram {
		switch {
		case share > bestShare:
			merged.Secondary, secondShare = merged.Dominant, bestShare
			merged.Dominant, bestShare = name, share
		case share > secondShare:
			merged.Secondary, secondShare = name, share
		}
	}
	return merged
}

func insetImage(img image.Image, frac float64) image.Image {
	b := img.Bounds()
	dx := int(float64(b.Dx()) * frac)
	dy := int(float64(b.Dy()) * frac)
	roi := imaging.ROI{
		X:      b.Min.X + dx,
		Y:      b.Min.Y + dy,
		Width:  b.Dx() - 2*dx,
		Height: b.Dy() - 2*dy,
	}
	cropped, err := imaging.CropROI(img, roi)
	if err != nil {
		return img
	}
	return cropped
}
