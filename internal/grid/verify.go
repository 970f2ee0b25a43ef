package grid

import (
	"image"
	"math"
	"sort"
)

// Verification reports whether a set of detected positions forms a
// geometrically consistent grid.
type Verification struct {
	Valid      bool    `json:"valid"`
	Confidence float64 `json:"confidence"`
	// KeptIndex holds the indices (into the input slice) of positions that
	// survived spacing-consistency filtering.
	KeptIndex []int `json:"kept_index"`
	Dropped   int   `json:"dropped"`
	// ModalSpacingX and ModalSpacingY are the dominant grid spacings.
	ModalSpacingX float64 `json:"modal_spacing_x"`
	ModalSpacingY float64 `json:"modal_spacing_y"`
}

// VerifyPositions checks that positions cluster into rows with consistent
// modal spacing, filtering outliers. Sets smaller than three positions are
// trivially accepted with confidence 0.5.
//
// expected is the estimated icon size in pixels; it anchors row clustering,
// plausible spacing bounds, and tolerance clamping.
func VerifyPositions(positions []image.Point, expected float64) Verification {
	n := len(positions)
	if n < 3 {
		kept := make([]int, n)
		for i := range kept {
			kept[i] = i
		}
		return Verification{Valid: true, Confidence: 0.5, KeptIndex: kept}
	}

	rows := clusterRows(positions, expected*0.5)

	// Gather spacing samples: consecutive X gaps within rows, and gaps
	// between row center Y values.
	var xGaps, yGaps []float64
	for _, row := range rows {
		for i := 1; i < len(row); i++ {
			gap := float64(positions[row[i]].X - positions[row[i-1]].X)
			if gap >= expected*0.5 && gap <= expected*2.5 {
				xGaps = append(xGaps, gap)
			}
		}
	}
	centers := rowCenters(positions, rows)
	for i := 1; i < len(centers); i++ {
		gap := centers[i] - centers[i-1]
		if gap >= expected*0.5 && gap <= expected*2.5 {
			yGaps = append(yGaps, gap)
		}
	}

	modalX := modalSpacing(xGaps, expected)
	modalY := modalSpacing(yGaps, expected)

	tolerance := adaptiveTolerance(xGaps, expected)

	// Filter: the leftmost item of each row always survives; later items
	// survive if their gap from the previous kept item sits within
	// tolerance of the modal spacing or of a near-multiple of it (skipped
	// or empty slots).
	var kept []int
	for _, row := range rows {
		lastX := 0
		for i, idx := range row {
			if i == 0 {
				kept = append(kept, idx)
				lastX = positions[idx].X
				continue
			}
			gap := float64(positions[idx].X - lastX)
			if spacingMatches(gap, modalX, tolerance) {
				kept = append(kept, idx)
				lastX = positions[idx].X
			}
		}
	}
	sort.Ints(kept)

	dropped := n - len(kept)
	frac := float64(len(kept)) / float64(n)

	maxDropped := int(math.Max(2, 0.15*float64(n)))
	valid := frac >= 0.7 || dropped <= maxDropped || dropped < 2

	return Verification{
		Valid:         valid,
		Confidence:    frac,
		KeptIndex:     kept,
		Dropped:       dropped,
		ModalSpacingX: modalX,
		ModalSpacingY: modalY,
	}
}

// clusterRows groups position indices into rows by Y coordinate: sorted by
// Y, a new row starts whenever the gap to the previous position exceeds the
// tolerance. Each row is then ordered by X.
func clusterRows(positions []image.Point, tolerance float64) [][]int {
	order := make([]int, len(positions))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return positions[order[a]].Y < positions[order[b]].Y
	})

	var rows [][]int
	var current []int
	prevY := math.Inf(-1)
	for _, idx := range order {
		y := float64(positions[idx].Y)
		if len(current) > 0 && y-prevY > tolerance {
			rows = append(rows, current)
			current = nil
		}
		current = append(current, idx)
		prevY = y
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}

	for _, row := range rows {
		sort.Slice(row, func(a, b int) bool {
			return positions[row[a]].X < positions[row[b]].X
		})
	}
	return rows
}

// rowCenters returns the mean Y of each row, in row order.
func rowCenters(positions []image.Point, rows [][]int) []float64 {
	centers := make([]float64, len(rows))
	for i, row := range rows {
		var sum float64
		for _, idx := range row {
			sum += float64(positions[idx].Y)
		}
		centers[i] = sum / float64(len(row))
	}
	return centers
}

// modalSpacing buckets samples and returns the mean of the most populated
// bucket. Fewer than two samples fall back to the expected size.
func modalSpacing(gaps []float64, expected float64) float64 {
	if len(gaps) < 2 {
		return expected
	}

	bucketWidth := math.Max(2, expected*0.15)
	counts := make(map[int]int)
	sums := make(map[int]float64)
	for _, g := range gaps {
		b := int(math.Round(g / bucketWidth))
		counts[b]++
		sums[b] += g
	}

	bestBucket, bestCount := 0, 0
	for b, cnt := range counts {
		if cnt > bestCount || (cnt == bestCount && b < bestBucket) {
			bestBucket, bestCount = b, cnt
		}
	}
	return sums[bestBucket] / float64(bestCount)
}

// adaptiveTolerance scales with observed spacing variance, clamped to a
// sane band relative to the expected icon size:
// max(min(2*stddev, 0.35*expected), 0.15*expected).
func adaptiveTolerance(gaps []float64, expected float64) float64 {
	if len(gaps) < 2 {
		return expected * 0.15
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	var varSum float64
	for _, g := range gaps {
		d := g - mean
		varSum += d * d
	}
	stddev := math.Sqrt(varSum / float64(len(gaps)))

	return math.Max(math.Min(2*stddev, expected*0.35), expected*0.15)
}

// spacingMatches reports whether a gap matches the modal spacing or a
// near-multiple of it within tolerance.
func spacingMatches(gap, modal, tolerance float64) bool {
	if modal <= 0 {
		return false
	}
	multiple := math.Round(gap / modal)
	if multiple < 1 {
		multiple = 1
	}
	return math.Abs(gap-multiple*modal) <= tolerance
}
