package window

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidBoundarySequence = errors.New("invalid boundary sequence")
)
