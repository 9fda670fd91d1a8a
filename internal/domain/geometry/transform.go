// Package geometry maps target-space millimetres onto the pixel grid of a
// square render.
package geometry

import (
	"fmt"

	"github.com/gogpu/gg"
)

// Transform is the affine map from millimetres (origin at the target centre,
// y up) to pixels (origin top-left, y down) for one render.
type Transform struct {
	dimension int
	scale     float64
	center    float64
	forward   gg.Matrix
	inverse   gg.Matrix
}

// NewTransform builds the map for a dimension×dimension image showing
// size×zoomFactor millimetres edge to edge.
func NewTransform(dimension int, size, zoomFactor float64) (Transform, error) {
	if dimension <= 0 {
		return Transform{}, fmt.Errorf("geometry: dimension must be > 0, got %d", dimension)
	}
	if size <= 0 || zoomFactor <= 0 {
		return Transform{}, fmt.Errorf("geometry: size and zoom factor must be > 0, got %v, %v", size, zoomFactor)
	}
	scale := float64(dimension) / (size * zoomFactor)
	center := float64(dimension) / 2
	fwd := gg.Translate(center, center).Multiply(gg.Scale(scale, -scale))
	return Transform{
		dimension: dimension,
		scale:     scale,
		center:    center,
		forward:   fwd,
		inverse:   fwd.Invert(),
	}, nil
}

// Dimension returns the output edge length in pixels.
func (t Transform) Dimension() int { return t.dimension }

// Scale returns pixels per millimetre.
func (t Transform) Scale() float64 { return t.scale }

// Center returns the pixel coordinate of the target centre on both axes.
func (t Transform) Center() float64 { return t.center }

// ToPixel maps a target-space position in mm to pixel coordinates.
func (t Transform) ToPixel(x, y float64) (float64, float64) {
	p := t.forward.TransformPoint(gg.Pt(x, y))
	return p.X, p.Y
}

// ToMillimeters is the inverse of ToPixel.
func (t Transform) ToMillimeters(px, py float64) (float64, float64) {
	p := t.inverse.TransformPoint(gg.Pt(px, py))
	return p.X, p.Y
}

// Length converts a millimetre length (diameter, bar width, caliber) to
// pixels.
func (t Transform) Length(mm float64) float64 {
	return mm * t.scale
}
