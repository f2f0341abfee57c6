package domain

import "errors"

// Stable error kinds callers branch on with errors.Is. Storage failures are
// not listed here: they are wrapped and propagated as-is, never classified
// into a softer kind.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrValidation          = errors.New("validation failed")
)
