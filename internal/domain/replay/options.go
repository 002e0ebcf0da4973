package replay

import "github.com/okian/wrestlerank/internal/domain/model"

// Option applies a configuration option to a run.
type Option func(*runConfig)

type runConfig struct {
	horizon    model.Month
	hasHorizon bool
	runID      string
	report     model.Report
}

// WithHorizon extends final decay through m when m is later than the last active period.
func WithHorizon(m model.Month) Option {
	return func(c *runConfig) {
		c.horizon = m
		c.hasHorizon = true
	}
}

// WithRunID sets the run identifier recorded on the snapshot.
func WithRunID(id string) Option {
	return func(c *runConfig) {
		if id != "" {
			c.runID = id
		}
	}
}

// WithReport attaches the ingestion report to the snapshot.
func WithReport(r model.Report) Option {
	return func(c *runConfig) {
		c.report = r
	}
}
