package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("entry not found")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrSchemaDrift       = errors.New("store schema drift")
	ErrClosed            = errors.New("store closed")
	ErrReadOnly          = errors.New("store opened read-only")
)
