package grid

import "math"

const (
	// minIconSpacing and maxIconSpacing bound plausible edge spacings.
	minIconSpacing = 25
	maxIconSpacing = 100
	// spacingBucket groups near-equal spacings when finding the mode.
	spacingBucket = 4
	// maxScaleConfidence caps edge-derived confidence.
	maxScaleConfidence = 0.95
	// minBandConfidence gates edge-based scale detection; below it the
	// resolution table is used instead.
	minBandConfidence = 0.4
)

// ScaleResult is the estimated icon edge length in pixels.
type ScaleResult struct {
	IconSize   int
	Confidence float64
	Fallback   bool
}

// DetectIconScale estimates the icon size from consecutive edge spacings.
// If the hotbar signal is weak or fewer than two edges were found, it falls
// back to a resolution-bucketed size table.
func DetectIconScale(edges []int, bandConfidence float64, width, height int) ScaleResult {
	if bandConfidence < minBandConfidence || len(edges) < 2 {
		return fallbackScale(width, height)
	}

	// Bucket plausible spacings and take the mode.
	counts := make(map[int]int)
	sums := make(map[int]int)
	valid := 0
	for i := 1; i < len(edges); i++ {
		sp := edges[i] - edges[i-1]
		if sp < minIconSpacing || sp > maxIconSpacing {
			continue
		}
		bucket := int(math.Round(float64(sp) / spacingBucket))
		counts[bucket]++
		sums[bucket] += sp
		valid++
	}
	if valid == 0 {
		return fallbackScale(width, height)
	}

	bestBucket, bestCount := 0, 0
	for bucket, cnt := range counts {
		if cnt > bestCount || (cnt == bestCount && bucket < bestBucket) {
			bestBucket, bestCount = bucket, cnt
		}
	}

	size := int(math.Round(float64(sums[bestBucket]) / float64(bestCount)))
	confidence := math.Min(float64(bestCount)/float64(valid), maxScaleConfidence)

	return ScaleResult{IconSize: size, Confidence: confidence}
}

// fallbackScale returns a plausible icon size for the resolution category.
func fallbackScale(width, height int) ScaleResult {
	var size int
	switch {
	case height >= 2160: // 4K
		size = 96
	case height >= 1440:
		size = 80
	case height >= 1080:
		size = 64
	case height >= 720:
		size = 48
	default: // handheld
		size = 40
	}
	return ScaleResult{IconSize: size, Confidence: 0.4, Fallback: true}
}
