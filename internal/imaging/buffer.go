package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// Luminance converts an image to a per-pixel grayscale buffer in row-major
// order. Grayscale is the plain mean of R, G, and B (each 0-255); alpha is
// ignored. Comparison code operates on these buffers only.
func Luminance(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	buf := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// 16-bit to 8-bit, then mean of the three channels.
			buf[y*width+x] = (float64(r>>8) + float64(g>>8) + float64(b>>8)) / 3.0
		}
	}
	return buf
}

// LumaStats summarizes the luminance distribution of a region. The matching
// code uses it to reject empty inventory slots before scoring.
type LumaStats struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
}

// ComputeLumaStats computes mean and variance of an image's luminance.
func ComputeLumaStats(img image.Image) LumaStats {
	buf := Luminance(img)
	if len(buf) == 0 {
		return LumaStats{}
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

	return LumaStats{Mean: mean, Variance: varSum / float64(len(buf))}
}

// CropROI extracts the ROI from an image, clamped to the image bounds.
// Returns an error if the clamped region has zero area.
func CropROI(img image.Image, roi ROI) (image.Image, error) {
	clamped := roi.ClampTo(img.Bounds())
	if clamped.Area() == 0 {
		return nil, fmt.Errorf("region %dx%d at (%d,%d) outside image bounds",
			roi.Width, roi.Height, roi.X, roi.Y)
	}
	return imaging.Crop(img, clamped.Rect()), nil
}

// ResizeNearest scales an image to the given dimensions using
// nearest-neighbor resampling. Item icons are pixel art; nearest-neighbor
// keeps their hard edges intact when scaling templates to cell size.
func ResizeNearest(img image.Image, width, height int) image.Image {
	if width <= 0 || height <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return transform.Resize(img, width, height, transform.NearestNeighbor)
}

// ResizeLanczos scales an image with Lanczos resampling. Used where smooth
// interpolation matters more than hard pixel edges (e.g. screenshots).
func ResizeLanczos(img image.Image, width, height int) image.Image {
	if width <= 0 || height <= 0 {
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
