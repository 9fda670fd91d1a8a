package target

import "errors"

// Sentinel kinds for profile errors.
var (
	ErrInvalidProfile = errors.New("invalid target profile")
	ErrUnknownTarget  = errors.New("unknown target")
)
