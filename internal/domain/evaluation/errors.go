package evaluation

import "errors"

// Sentinel errors for evaluation settings.
var (
	ErrMissingTrainEnd = errors.New("train end is required")
	ErrInvalidWindow   = errors.New("invalid evaluation window")
	ErrInvalidMode     = errors.New("invalid evaluation mode")
)
