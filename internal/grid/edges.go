package grid

import (
	"image"
	"math"

	"github.com/bonktools/bonkscan/internal/imaging"
)

const (
	// edgeSampleStepY subsamples band rows when profiling columns.
	edgeSampleStepY = 2
	// edgeSmoothRadius is the box-filter radius applied to the gradient
	// profile before peak picking.
	edgeSmoothRadius = 2
	// minEdgeGap is the minimum pixel separation between reported edges.
	minEdgeGap = 12
)

// DetectIconEdges finds vertical edges characteristic of icon boundaries
// inside the hotbar band. It returns the ordered x coordinates (absolute,
// in image space) of gradient peaks. An empty result means no usable edge
// signal; callers fall back to resolution-based scale detection.
func DetectIconEdges(img image.Image, band imaging.ROI) []int {
	crop, err := imaging.CropROI(img, band)
	if err != nil {
		return nil
	}

	buf := imaging.Luminance(crop)
	w := crop.Bounds().Dx()
	h := crop.Bounds().Dy()
	if w < 2 || h < 1 {
		return nil
	}

	// Column profile: mean absolute horizontal gradient per column.
	profile := make([]float64, w-1)
	for x := 0; x < w-1; x++ {
		var sum float64
		rows := 0
		for y := 0; y < h; y += edgeSampleStepY {
			sum += math.Abs(buf[y*w+x+1] - buf[y*w+x])
			rows++
		}
		profile[x] = sum / float64(rows)
	}

	smoothed := boxSmooth(profile, edgeSmoothRadius)

	// Peaks must clear mean + one standard deviation.
	var sum float64
	for _, v := range smoothed {
		sum += v
	}
	mean := sum / float64(len(smoothed))
	var varSum float64
	for _, v := range smoothed {
		d := v - mean
		varSum += d * d
	}
	threshold := mean + math.Sqrt(varSum/float64(len(smoothed)))

	var edges []int
	lastEdge := -minEdgeGap
	for x := 1; x < len(smoothed)-1; x++ {
		v := smoothed[x]
		// Flat regions produce a zero threshold; require real gradient.
		if v < 1e-6 || v < threshold || v < smoothed[x-1] || v < smoothed[x+1] {
			continue
		}
		if x-lastEdge < minEdgeGap {
			continue
		}
		edges = append(edges, band.X+x)
		lastEdge = x
	}
	return edges
}

// boxSmooth applies a simple box filter of the given radius.
func boxSmooth(in []float64, radius int) []float64 {
	out := make([]float64, len(in))
	for i := range in {
		var sum float64
		n := 0
		for j := i - radius; j <= i+radius; j++ {
			if j < 0 || j >= len(in) {
				continue
			}
			sum += in[j]
			n++
		}
		out[i] = sum / float64(n)
	}
	return out
}
