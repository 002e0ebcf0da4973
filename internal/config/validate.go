package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/wrestlerank/internal/domain/evaluation"
	"github.com/okian/wrestlerank/internal/domain/model"
)

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks every field that can be checked without I/O.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case !logLevels[strings.ToLower(c.LogLevel)]:
		return invalid("log_level %q", c.LogLevel)
	case c.MaxLeaderboardLimit < 0:
		return invalid("max_leaderboard_limit must not be negative")
	case c.Workers < 0:
		return invalid("workers must not be negative")
	case c.RefreshInterval < 0:
		return invalid("refresh_interval must not be negative")
	case c.Persist && c.PersistTau <= 0:
		return invalid("persist_tau must be positive")
	}
	for _, tau := range c.Taus {
		if tau <= 0 {
			return invalid("tau %v must be positive", tau)
		}
	}
	if _, err := evaluation.ParseMode(c.EvalMode); err != nil {
		return invalid("%v", err)
	}
	if _, _, err := c.MatchRange(); err != nil {
		return invalid("%v", err)
	}
	if _, err := c.HorizonMonth(); err != nil {
		return invalid("%v", err)
	}
	if _, err := c.Window(); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func parseBound(raw string, endOfDay bool) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return model.ParseTimestamp(raw, endOfDay)
}

// MatchRange returns the input date filter. A date-only end includes the whole day.
func (c *Config) MatchRange() (start, end time.Time, err error) {
	if start, err = parseBound(c.StartDate, false); err != nil {
		return start, end, fmt.Errorf("start_date: %w", err)
	}
	if end, err = parseBound(c.EndDate, true); err != nil {
		return start, end, fmt.Errorf("end_date: %w", err)
	}
	return start, end, nil
}

// HorizonMonth returns the configured decay horizon, if any.
func (c *Config) HorizonMonth() (*model.Month, error) {
	if strings.TrimSpace(c.Horizon) == "" {
		return nil, nil
	}
	m, err := model.ParseMonth(c.Horizon)
	if err != nil {
		return nil, fmt.Errorf("horizon: %w", err)
	}
	return &m, nil
}

// Window returns the unresolved evaluation window; TrainEnd is zero when unset.
func (c *Config) Window() (evaluation.Window, error) {
	var (
		w   evaluation.Window
		err error
	)
	if w.TrainEnd, err = parseBound(c.TrainEnd, true); err != nil {
		return w, fmt.Errorf("train_end: %w", err)
	}
	if w.EvalStart, err = parseBound(c.EvalStart, false); err != nil {
		return w, fmt.Errorf("eval_start: %w", err)
	}
	if w.EvalEnd, err = parseBound(c.EvalEnd, true); err != nil {
		return w, fmt.Errorf("eval_end: %w", err)
	}
	return w, nil
}

// Mode returns the parsed evaluation mode.
func (c *Config) Mode() evaluation.Mode {
	m, _ := evaluation.ParseMode(c.EvalMode)
	return m
}
