package grid

import (
	"image"
	"image/color"
	"math"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/imaging"
)

const (
	// bandScanFraction is the bottom portion of the screen scanned for the
	// inventory row.
	bandScanFraction = 0.35
	// stripHeight is the height of each measured horizontal strip.
	stripHeight = 2
	// windowHeight is the sliding window used to score candidate bands.
	windowHeight = 70
	// bandMinHeight and bandMaxHeight clamp the reported band.
	bandMinHeight = 40
	bandMaxHeight = 120
	// sampleStepX subsamples strip pixels horizontally.
	sampleStepX = 4
	// borderTolerance is the per-channel match tolerance for rarity border
	// colors in compressed screenshots.
	borderTolerance = 40
	// minContentScore is the minimal window content score; below it the
	// fixed bottom-band fallback kicks in.
	minContentScore = 0.05
)

// Band is the detected hotbar region with a confidence annotation.
type Band struct {
	ROI        imaging.ROI
	Confidence float64
	Fallback   bool
}

// stripMetrics summarizes one 2px strip: the fraction of pixels matching a
// rarity border color, the fraction of saturated pixels, and the luminance
// variance.
type stripMetrics struct {
	y        int
	rarity   float64
	colorful float64
	variance float64
}

// DetectHotbar scans the bottom of the screen for the horizontal band most
// likely to contain the inventory row. It always returns a usable band; low
// signal produces the fixed bottom-band fallback with low confidence.
func DetectHotbar(img image.Image, borders map[catalog.Rarity]color.RGBA) Band {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	scanTop := bounds.Min.Y + int(float64(height)*(1-bandScanFraction))
	xFrom := bounds.Min.X + width*15/100
	xTo := bounds.Min.X + width*85/100

	borderList := make([]color.RGBA, 0, len(borders))
	for _, c := range borders {
		borderList = append(borderList, c)
	}

	var strips []stripMetrics
	for y := scanTop; y+stripHeight <= bounds.Max.Y; y += stripHeight {
		strips = append(strips, measureStrip(img, y, xFrom, xTo, borderList))
	}

	windowStrips := windowHeight / stripHeight
	if windowStrips > len(strips) {
		windowStrips = len(strips)
	}
	if windowStrips < 1 {
		return fallbackBand(bounds)
	}

	bestScore := -1.0
	bestContent := 0.0
	bestTop := scanTop
	for i := 0; i+windowStrips <= len(strips); i++ {
		var rarity, colorful, variance float64
		for j := i; j < i+windowStrips; j++ {
			rarity += strips[j].rarity
			colorful += strips[j].colorful
			variance += strips[j].variance
		}
		n := float64(windowStrips)
		rarity /= n
		colorful /= n
		variance /= n

		// Border pixels are a thin fraction of any band; amplify before
		// mixing. Variance normalizes against a typical icon-art spread.
		rarityScore := math.Min(rarity*8, 1)
		varScore := math.Min(variance/2000, 1)
		content := 0.45*rarityScore + 0.35*colorful + 0.20*varScore

		windowBottom := strips[i+windowStrips-1].y + stripHeight
		position := float64(windowBottom-bounds.Min.Y) / float64(height)
		score := content * (0.8 + 0.2*position)

		if score > bestScore {
			bestScore = score
			bestContent = content
			bestTop = strips[i].y
		}
	}

	if bestContent < minContentScore {
		return fallbackBand(bounds)
	}

	bandH := windowStrips * stripHeight
	if bandH < bandMinHeight {
		bandH = bandMinHeight
	}
	if bandH > bandMaxHeight {
		bandH = bandMaxHeight
	}
	roi := imaging.ROI{
		X:      bounds.Min.X,
		Y:      bestTop,
		Width:  width,
		Height: bandH,
		Label:  "hotbar",
	}.ClampTo(bounds)

	return Band{
		ROI:        roi,
		Confidence: math.Min(bestScore, 0.95),
	}
}

// fallbackBand returns the fixed bottom-band heuristic: the slice of the
// screen between 85% and 95% of its height.
func fallbackBand(bounds image.Rectangle) Band {
	height := bounds.Dy()
	top := bounds.Min.Y + height*85/100
	bottom := bounds.Min.Y + height*95/100
	return Band{
		ROI: imaging.ROI{
			X:      bounds.Min.X,
			Y:      top,
			Width:  bounds.Dx(),
			Height: bottom - top,
			Label:  "hotbar",
		}.ClampTo(bounds),
		Confidence: 0.3,
		Fallback:   true,
	}
}

// measureStrip samples one strip and computes its metrics.
func measureStrip(img image.Image, y, xFrom, xTo int, borders []color.RGBA) stripMetrics {
	m := stripMetrics{y: y}

	var lumas []float64
	total := 0
	for yy := y; yy < y+stripHeight; yy++ {
		for x := xFrom; x < xTo; x += sampleStepX {
			c := img.At(x, yy)
			total++

			for _, b := range borders {
				if imaging.ColorNear(c, b, borderTolerance) {
					m.rarity++
					break
				}
			}
			// Saturated and bright enough to be icon art, not dark chrome.
			if hsv := imaging.HSVOf(c); hsv.S > 0.3 && hsv.V > 0.2 {
				m.colorful++
			}

			r, g, b, _ := c.RGBA()
			lumas = append(lumas, (float64(r>>8)+float64(g>>8)+float64(b>>8))/3)
		}
	}
	if total == 0 {
		return m
	}

	m.rarity /= float64(total)
	m.colorful /= float64(total)

	var sum float64
	for _, l := range lumas {
		sum += l
	}
	mean := sum / float64(len(lumas))
	for _, l := range lumas {
		d := l - mean
		m.variance += d * d
	}
	m.variance /= float64(len(lumas))

	return m
}
