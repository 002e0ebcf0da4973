package compare

import "errors"

// Sentinel errors for tau comparison.
var (
	ErrInvalidTau = errors.New("tau must be a positive finite number")
)
