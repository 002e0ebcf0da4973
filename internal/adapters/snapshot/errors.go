package snapshot

import "errors"

// Sentinel errors for snapshot persistence.
var (
	ErrNoSnapshot        = errors.New("no persisted snapshot")
	ErrUnsupportedDriver = errors.New("unsupported snapshot driver")
	ErrNilSnapshot       = errors.New("nil snapshot")
)
