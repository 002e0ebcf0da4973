// Package cli holds the start-up plumbing shared by the binaries: config
// loading with flag overrides, logger setup and adapter construction.
package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/wrestlerank/internal/adapters/matchsource"
	"github.com/okian/wrestlerank/internal/adapters/snapshot"
	"github.com/okian/wrestlerank/internal/adapters/worker"
	service "github.com/okian/wrestlerank/internal/app"
	"github.com/okian/wrestlerank/internal/config"
	"github.com/okian/wrestlerank/pkg/logger"
	"github.com/okian/wrestlerank/pkg/metrics"
)

// Taus is a flag.Value holding a comma-separated tau list.
type Taus struct {
	Values *[]float64
}

// String implements flag.Value.
func (t Taus) String() string {
	if t.Values == nil {
		return ""
	}
	parts := make([]string, len(*t.Values))
	for i, v := range *t.Values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Set implements flag.Value. Each use replaces the list.
func (t Taus) Set(s string) error {
	v, err := ParseTaus(s)
	if err != nil {
		return err
	}
	*t.Values = v
	return nil
}

// ParseTaus parses "0.3,0.5 0.7" style lists.
func ParseTaus(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("tau %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Load initialises logging, loads the layered config, lets bind register
// flags defaulting to the loaded values, parses args and re-validates.
func Load(ctx context.Context, name string, args []string, bind func(*flag.FlagSet, *config.Config)) (*config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "record Prometheus metrics")
	if bind != nil {
		bind(fs, cfg)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	metrics.SetEnabled(cfg.Metrics)
	return cfg, nil
}

// BindSource registers the match input flags.
func BindSource(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.SourceDriver, "source-driver", cfg.SourceDriver, "match database driver: sqlite or postgres")
	fs.StringVar(&cfg.SourceDSN, "source-dsn", cfg.SourceDSN, "match database DSN")
	fs.StringVar(&cfg.SourceTable, "source-table", cfg.SourceTable, "match table name")
	fs.StringVar(&cfg.SourceFile, "source-file", cfg.SourceFile, "read matches from a JSON export instead of a database")
	fs.StringVar(&cfg.StartDate, "start-date", cfg.StartDate, "ignore matches before this date (YYYY-MM-DD or RFC 3339)")
	fs.StringVar(&cfg.EndDate, "end-date", cfg.EndDate, "ignore matches after this date (inclusive)")
	fs.Var(Taus{Values: &cfg.Taus}, "taus", "comma-separated tau values")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent tau runs")
}

// BindSnapshot registers the ratings table flags.
func BindSnapshot(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.SnapshotDriver, "db-driver", cfg.SnapshotDriver, "ratings database driver: sqlite or postgres")
	fs.StringVar(&cfg.SnapshotDSN, "db-dsn", cfg.SnapshotDSN, "ratings database DSN")
	fs.StringVar(&cfg.SnapshotTable, "db-table", cfg.SnapshotTable, "ratings table name")
}

// OpenSource returns the configured match source and its closer.
func OpenSource(ctx context.Context, cfg *config.Config) (matchsource.Source, func() error, error) {
	if cfg.SourceFile != "" {
		return matchsource.NewFileSource(cfg.SourceFile), func() error { return nil }, nil
	}
	src, err := matchsource.Open(ctx, cfg.SourceDriver, cfg.SourceDSN,
		matchsource.WithTable(cfg.SourceTable),
		matchsource.WithConnectTimeout(cfg.ConnectTimeout),
	)
	if err != nil {
		return nil, nil, err
	}
	return src, src.Close, nil
}

// OpenSnapshots returns the configured ratings table store.
func OpenSnapshots(ctx context.Context, cfg *config.Config) (snapshot.Store, error) {
	return snapshot.Open(ctx, cfg.SnapshotDriver, cfg.SnapshotDSN,
		snapshot.WithTable(cfg.SnapshotTable),
		snapshot.WithConnectTimeout(cfg.ConnectTimeout),
	)
}

// ServiceOptions maps the rating settings of cfg onto service options.
func ServiceOptions(cfg *config.Config, src matchsource.Source) ([]service.Option, error) {
	start, end, err := cfg.MatchRange()
	if err != nil {
		return nil, err
	}
	horizon, err := cfg.HorizonMonth()
	if err != nil {
		return nil, err
	}
	poolOpts := []worker.Option{worker.WithName("tau-pool")}
	if cfg.Workers > 0 {
		poolOpts = append(poolOpts, worker.WithSize(cfg.Workers))
	}
	persistTau := 0.0
	if cfg.Persist {
		persistTau = cfg.PersistTau
	}
	return []service.Option{
		service.WithLogger(logger.Get()),
		service.WithSource(src),
		service.WithRange(matchsource.Range{Start: start, End: end}),
		service.WithTaus(cfg.Taus...),
		service.WithPersistTau(persistTau),
		service.WithOutputDir(cfg.OutputDir),
		service.WithHorizon(horizon),
		service.WithPool(worker.NewPool(poolOpts...)),
		service.WithRefreshInterval(cfg.RefreshInterval),
	}, nil
}
