package app

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrSourceUnavailable means the raw snapshot source or the boundary
	// source could not be read. Nothing is written when it is returned.
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrNotFound          = errors.New("not found")
)
