package matchsource

import "errors"

// Sentinel errors for match sources.
var (
	ErrUnsupportedDriver = errors.New("unsupported driver")
	ErrInvalidRange      = errors.New("invalid date range")
)
