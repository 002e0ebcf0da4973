package synth

import "time"

// Defaults for a generated season.
const (
	DefaultWrestlers = 200
	DefaultMatches   = 5000
	DefaultMonths    = 24
	DefaultSeed      = 1

	// strengthSpread is the standard deviation of hidden strength on the Elo scale.
	strengthSpread = 200.0
)

// DefaultWeights are the labels wrestlers are spread across.
var DefaultWeights = []string{"106", "113", "120", "126", "132", "138", "144", "150", "157", "165", "175", "190", "215", "HWT 285"}

// Config describes a generated match history.
type Config struct {
	Seed      uint64
	Wrestlers int
	Matches   int
	Start     time.Time
	Months    int
	Weights   []string
	// NoiseRate is the fraction of matches emitted malformed: duplicate ids,
	// self-matches, outside winners and unlabeled weights.
	NoiseRate float64
}

// Option applies a configuration option to the generator.
type Option func(*Config)

// WithSeed fixes the random stream.
func WithSeed(seed uint64) Option { return func(c *Config) { c.Seed = seed } }

// WithWrestlers sets the roster size.
func WithWrestlers(n int) Option {
	return func(c *Config) {
		if n >= 2 {
			c.Wrestlers = n
		}
	}
}

// WithMatches sets the number of matches.
func WithMatches(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.Matches = n
		}
	}
}

// WithSpan sets the first month and the number of months covered.
func WithSpan(start time.Time, months int) Option {
	return func(c *Config) {
		if !start.IsZero() {
			c.Start = start.UTC()
		}
		if months > 0 {
			c.Months = months
		}
	}
}

// WithWeights sets the weight labels.
func WithWeights(labels ...string) Option {
	return func(c *Config) {
		if len(labels) > 0 {
			c.Weights = labels
		}
	}
}

// WithNoise sets the malformed fraction, clamped to [0, 1].
func WithNoise(rate float64) Option {
	return func(c *Config) {
		c.NoiseRate = min(max(rate, 0), 1)
	}
}

func newConfig(opts []Option) Config {
	c := Config{
		Seed:      DefaultSeed,
		Wrestlers: DefaultWrestlers,
		Matches:   DefaultMatches,
		Start:     time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
		Months:    DefaultMonths,
		Weights:   DefaultWeights,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
