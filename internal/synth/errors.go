package synth

import "errors"

// ErrInvalidConfig reports a configuration that cannot produce matches.
var ErrInvalidConfig = errors.New("invalid synth config")
