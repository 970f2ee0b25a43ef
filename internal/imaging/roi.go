package imaging

import "image"

// ROI is a rectangular region of interest within an image. Grid inference
// produces one ROI per inventory slot; a ROI is immutable once produced.
type ROI struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label,omitempty"`
}

// Rect converts the ROI to a standard image.Rectangle.
func (r ROI) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Area returns the pixel area of the ROI.
func (r ROI) Area() int { return r.Width * r.Height }

// Center returns the center point of the ROI.
func (r ROI) Center() image.Point {
	return image.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ClampTo shrinks the ROI so it lies entirely within bounds. A ROI fully
// outside bounds collapses to zero area.
func (r ROI) ClampTo(bounds image.Rectangle) ROI {
	rect := r.Rect().Intersect(bounds)
	return ROI{
		X:      rect.Min.X,
		Y:      rect.Min.Y,
		Width:  rect.Dx(),
		Height: rect.Dy(),
		Label:  r.Label,
	}
}
