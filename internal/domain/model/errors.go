package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidBucketKey = errors.New("invalid bucket key")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
