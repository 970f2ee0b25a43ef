package imaging

import (
	"image"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorName is one bucket of the fixed perceptual palette used to summarize
// icon and cell colors.
type ColorName string

const (
	ColorRed    ColorName = "red"
	ColorOrange ColorName = "orange"
	ColorYellow ColorName = "yellow"
	ColorGreen  ColorName = "green"
	ColorBlue   ColorName = "blue"
	ColorPurple ColorName = "purple"
	ColorWhite  ColorName = "white"
	ColorGray   ColorName = "gray"
	ColorBrown  ColorName = "brown"
	ColorBlack  ColorName = "black"
)

// HSV holds an average hue/saturation/value descriptor. Hue is in degrees
// (0-360); saturation and value are in [0,1].
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// ColorProfile is a compact summary of a region's colors: the share of
// pixels falling into each palette bucket, plus the dominant and secondary
// buckets by pixel count.
type ColorProfile struct {
	Dominant  ColorName             `json:"dominant"`
	Secondary ColorName             `json:"secondary,omitempty"`
	Histogram map[ColorName]float64 `json:"histogram"`
}

// ClassifyColor maps an RGBA color onto the fixed palette. Classification
// works in HSV space: low value is black, low saturation splits into
// white/gray/black by value, and saturated colors bucket by hue with a
// brown carve-out for dark orange tones.
func ClassifyColor(c color.Color) ColorName {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		// Fully transparent; treat as black.
		return ColorBlack
	}
	h, s, v := cf.Hsv()

	if v < 0.12 {
		return ColorBlack
	}
	if s < 0.18 {
		switch {
		case v > 0.85:
			return ColorWhite
		case v < 0.25:
			return ColorBlack
		default:
			return ColorGray
		}
	}

	// Dark warm tones read as brown rather than orange/red.
	if h >= 10 && h < 50 && v < 0.55 {
		return ColorBrown
	}

	switch {
	case h < 15 || h >= 345:
		return ColorRed
	case h < 45:
		return ColorOrange
	case h < 70:
		return ColorYellow
	case h < 165:
		return ColorGreen
	case h < 255:
		return ColorBlue
	case h < 345:
		return ColorPurple
	}
	return ColorGray
}

// ExtractProfile builds a color profile for an image, sampling every
// step-th pixel in both axes (step <= 1 samples every pixel).
func ExtractProfile(img image.Image, step int) ColorProfile {
	if step < 1 {
		step = 1
	}
	bounds := img.Bounds()

	hist := make(map[ColorName]float64)
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			hist[ClassifyColor(img.At(x, y))]++
			total++
		}
	}
	if total == 0 {
		return ColorProfile{Dominant: ColorBlack, Histogram: hist}
	}

	type bucket struct {
		name  ColorName
		share float64
	}
	buckets := make([]bucket, 0, len(hist))
	for name, cnt := range hist {
		share := cnt / float64(total)
		hist[name] = share
		buckets = append(buckets, bucket{name, share})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].share != buckets[j].share {
			return buckets[i].share > buckets[j].share
		}
		return buckets[i].name < buckets[j].name
	})

	profile := ColorProfile{Dominant: buckets[0].name, Histogram: hist}
	if len(buckets) > 1 {
		profile.Secondary = buckets[1].name
	}
	return profile
}

// Overlap scores how similar two profiles are, as the sum over palette
// buckets of the smaller of the two shares. Identical profiles score 1.0;
// disjoint profiles score 0.
func (p ColorProfile) Overlap(other ColorProfile) float64 {
	var total float64
	for name, share := range p.Histogram {
		o := other.Histogram[name]
		if o < share {
			total += o
		} else {
			total += share
		}
	}
	return total
}

// AvgHSV computes the average hue, saturation, and value of an image,
// sampling every step-th pixel. Hue averaging is a plain arithmetic mean,
// which is adequate for the narrow-hue icon art this descriptor serves.
func AvgHSV(img image.Image, step int) HSV {
	if step < 1 {
		step = 1
	}
	bounds := img.Bounds()

	var sumH, sumS, sumV float64
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			cf, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			h, s, v := cf.Hsv()
			sumH += h
			sumS += s
			sumV += v
			n++
		}
	}
	if n == 0 {
		return HSV{}
	}
	return HSV{H: sumH / float64(n), S: sumS / float64(n), V: sumV / float64(n)}
}

// Saturation returns the HSV saturation of a color in [0,1].
func Saturation(c color.Color) float64 {
	return HSVOf(c).S
}

// HSVOf converts a single color to HSV. Fully transparent colors map to
// zero.
func HSVOf(c color.Color) HSV {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return HSV{}
	}
	h, s, v := cf.Hsv()
	return HSV{H: h, S: s, V: v}
}

// ColorNear reports whether two colors match within a per-channel tolerance.
// Used to spot rarity border pixels in screenshots, where compression and
// scaling shift exact values.
func ColorNear(a color.Color, b color.RGBA, tolerance int) bool {
	ar, ag, ab, _ := a.RGBA()
	diff := func(x uint8, y uint32) int {
		d := int(x) - int(y>>8)
		if d < 0 {
			d = -d
		}
		return d
	}
	return diff(b.R, ar) <= tolerance && diff(b.G, ag) <= tolerance && diff(b.B, ab) <= tolerance
}
