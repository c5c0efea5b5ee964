package upstream

import "errors"

// Sentinel kinds for upstream errors.
var (
	ErrUpstream  = errors.New("upstream request failed")
	ErrDecode    = errors.New("upstream payload invalid")
	ErrNoLeague  = errors.New("league id must be greater than zero")
	errTransient = errors.New("upstream transient failure")
)
