package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBadWeight  = errors.New("weight class has no digits")
	ErrBadLimit   = errors.New("limit must be a non-negative integer")
	ErrBadMonth   = errors.New("min_last_active must be YYYY-MM or YYYY-MM-DD")
)

// wrap prefixes err with the handler operation.
func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
