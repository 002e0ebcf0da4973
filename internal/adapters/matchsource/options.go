package matchsource

import (
	"regexp"
	"time"

	"github.com/okian/wrestlerank/pkg/logger"
)

// Default source configuration.
const (
	defaultTable          = "matches"
	defaultConnectTimeout = 30 * time.Second
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type config struct {
	table          string
	connectTimeout time.Duration
	logger         logger.Logger
}

func newConfig(opts []Option) config {
	c := config{table: defaultTable, connectTimeout: defaultConnectTimeout, logger: logger.Get()}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = c.logger.Named("matchsource")
	return c
}

// Option applies a configuration option to a source.
type Option func(*config)

// WithTable sets the match table name. Names that are not plain identifiers are ignored.
func WithTable(name string) Option {
	return func(c *config) {
		if tableName.MatchString(name) {
			c.table = name
		}
	}
}

// WithConnectTimeout bounds the connection retry loop of Open.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
