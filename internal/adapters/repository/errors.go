package repository

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNotFound      = errors.New("competitor not found")
	ErrUnknownWeight = errors.New("unknown weight class")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
)
