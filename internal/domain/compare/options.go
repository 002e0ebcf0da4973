package compare

import (
	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/pkg/logger"
)

// Option applies a configuration option to the Comparator.
type Option func(*Comparator)

// WithEngineOptions applies engine settings other than tau to every run.
func WithEngineOptions(opts ...glicko.Option) Option {
	return func(c *Comparator) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// WithLogger sets a custom logger for the comparator.
func WithLogger(l logger.Logger) Option {
	return func(c *Comparator) {
		if l != nil {
			c.logger = l
		}
	}
}
