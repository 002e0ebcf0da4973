package replay

import "errors"

// Sentinel errors for replay.
var (
	ErrOutOfOrder = errors.New("rating period out of order")
	ErrNilEngine  = errors.New("nil engine")
)
