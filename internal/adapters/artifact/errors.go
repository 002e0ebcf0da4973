package artifact

import "errors"

// Sentinel errors for artifact files.
var (
	ErrNilSnapshot = errors.New("nil snapshot")
	ErrMalformed   = errors.New("malformed artifact")
)
