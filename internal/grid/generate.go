package grid

import (
	"image"
	"math"
	"strconv"

	"github.com/bonktools/bonkscan/internal/imaging"
)

const (
	// maxSlotsPerRow caps the generated grid width.
	maxSlotsPerRow = 30
	// slotSpacingRatio is the gap between cells relative to icon size.
	slotSpacingRatio = 0.12
	// rowMarginRatio is the horizontal margin kept clear on each side.
	rowMarginRatio = 0.05
)

// GenerateRow lays out a single-row grid of cell regions inside the hotbar
// band: evenly spaced squares of iconSize, centered horizontally, capped at
// maxSlotsPerRow slots. Every returned ROI lies within bounds; labels are
// sequential slot indices.
func GenerateRow(bounds image.Rectangle, band imaging.ROI, iconSize int) []imaging.ROI {
	width := bounds.Dx()
	if iconSize <= 0 || width <= 0 {
		return nil
	}

	spacing := int(math.Round(float64(iconSize) * slotSpacingRatio))
	stride := iconSize + spacing
	margin := int(float64(width) * rowMarginRatio)

	usable := width - 2*margin
	slots := (usable + spacing) / stride
	if slots > maxSlotsPerRow {
		slots = maxSlotsPerRow
	}
	if slots < 1 {
		slots = 1
	}

	total := slots*iconSize + (slots-1)*spacing
	startX := bounds.Min.X + (width-total)/2
	y := band.Y + (band.Height-iconSize)/2
	if y < band.Y {
		y = band.Y
	}

	cells := make([]imaging.ROI, 0, slots)
	for i := 0; i < slots; i++ {
		roi := imaging.ROI{
			X:      startX + i*stride,
			Y:      y,
			Width:  iconSize,
			Height: iconSize,
			Label:  strconv.Itoa(i),
		}.ClampTo(bounds)
		if roi.Area() == 0 {
			continue
		}
		cells = append(cells, roi)
	}
	return cells
}
