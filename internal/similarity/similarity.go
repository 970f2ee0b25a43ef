// Package similarity scores pairs of equal-dimension pixel buffers with one
// of three algorithms: normalized cross-correlation (NCC), sum of squared
// differences (SSD), or a single-window structural similarity index (SSIM).
//
// Comparison is luminance-only: callers hand in grayscale buffers produced
// by imaging.Luminance. Scores land in a roughly [0,1] range where 1 means
// identical; SSIM is not clamped and callers must clamp downstream.
package similarity

import (
	"errors"
	"fmt"
	"math"
)

// Algorithm selects the pixel comparison function.
type Algorithm string

const (
	NCC  Algorithm = "ncc"
	SSD  Algorithm = "ssd"
	SSIM Algorithm = "ssim"
)

// ErrDimensionMismatch is returned when the two buffers differ in length.
// Mismatched buffers indicate a caller bug (templates must be resized to
// cell dimensions before scoring), so scoring fails fast instead of
// silently comparing a truncated prefix.
var ErrDimensionMismatch = errors.New("similarity: buffer dimensions differ")

// SSIM stabilization constants for 8-bit dynamic range.
const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// ParseAlgorithm validates an algorithm name from configuration.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case NCC, SSD, SSIM:
		return Algorithm(s), nil
	}
	return "", fmt.Errorf("unknown similarity algorithm %q", s)
}

// Score compares two equal-length luminance buffers with the chosen
// algorithm. Returns ErrDimensionMismatch if the buffers differ in length
// and an error for empty input.
func Score(a, b []float64, algo Algorithm) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d pixels", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("similarity: empty buffers")
	}

	switch algo {
	case NCC:
		return ncc(a, b), nil
	case SSD:
		return ssd(a, b), nil
	case SSIM:
		return ssim(a, b), nil
	default:
		return 0, fmt.Errorf("unknown similarity algorithm %q", algo)
	}
}

// Clamp bounds a raw score to [0, 0.99]. The top of the range is reserved:
// a reported confidence never claims a pixel-identical copy.
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 0.99 {
		return 0.99
	}
	return score
}

// ncc computes normalized cross-correlation mapped from [-1,1] to [0,1].
// Zero variance in either buffer yields 0 (denominator guard).
func ncc(a, b []float64) float64 {
	n := float64(len(a))

	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / n
	meanB := sumB / n

	var cross, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cross += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return 0
	}
	r := cross / denom
	return (r + 1) / 2
}

// ssd maps the mean squared luminance difference to a similarity in (0,1]:
// zero difference scores 1, larger differences decay monotonically.
func ssd(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	avg := sum / float64(len(a))
	return 1 / (1 + avg/255)
}

// ssim computes a windowless structural similarity over the whole buffer:
// the product of global luminance, contrast, and structure terms with the
// standard stabilization constants. The result is not clamped.
func ssim(a, b []float64) float64 {
	n := float64(len(a))

	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / n
	meanB := sumB / n

	var varA, varB, cov float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		varA += da * da
		varB += db * db
		cov += da * db
	}
	varA /= n
	varB /= n
	cov /= n

	stdA := math.Sqrt(varA)
	stdB := math.Sqrt(varB)

	luminance := (2*meanA*meanB + ssimC1) / (meanA*meanA + meanB*meanB + ssimC1)
	contrast := (2*stdA*stdB + ssimC2) / (varA + varB + ssimC2)
	structure := (cov + ssimC2/2) / (stdA*stdB + ssimC2/2)

	return luminance * contrast * structure
}
