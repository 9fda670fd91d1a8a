package render

import "errors"

var (
	// ErrInvalidZoom is returned when a zoom level lies outside the profile bounds.
	ErrInvalidZoom = errors.New("zoom level out of range")
	// ErrNegativeDimension is returned for a negative output size.
	ErrNegativeDimension = errors.New("negative dimension")
	// ErrDimensionTooLarge is returned when the output exceeds the configured maximum.
	ErrDimensionTooLarge = errors.New("dimension too large")
	// ErrInvalidColor is returned by ParseColor for malformed hex strings.
	ErrInvalidColor = errors.New("invalid color")
)
