package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBadEntryID = errors.New("entry id must be a positive integer")
)
