// Package config defines process configuration and its loading.
//
// Values are layered from defaults, an optional .env file, an optional YAML
// file named by WRESTLERANK_CONFIG and WRESTLERANK_* environment variables.
// Command-line flags are applied on top by each binary.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxLeaderboardLimit caps GET /leaderboard/{weight}?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Metrics switches Prometheus recording on or off.
	Metrics bool `koanf:"metrics"`

	// RefreshInterval controls how often the server reloads the ratings table.
	// Zero loads once at startup.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// SourceDriver and SourceDSN locate the match table; SourceFile, when set,
	// reads a JSON export instead.
	SourceDriver string `koanf:"source_driver"`
	SourceDSN    string `koanf:"source_dsn"`
	SourceTable  string `koanf:"source_table"`
	SourceFile   string `koanf:"source_file"`

	// SnapshotDriver and SnapshotDSN locate the persisted ratings table.
	SnapshotDriver string `koanf:"snapshot_driver"`
	SnapshotDSN    string `koanf:"snapshot_dsn"`
	SnapshotTable  string `koanf:"snapshot_table"`

	// ConnectTimeout bounds database connection retries.
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	// OutputDir receives one JSON artifact per tau.
	OutputDir string `koanf:"output_dir"`

	// Taus lists the volatility constraints to replay. Empty means 0.5.
	Taus []float64 `koanf:"taus"`

	// PersistTau selects the run written to the ratings table.
	PersistTau float64 `koanf:"persist_tau"`

	// Persist enables the ratings table write.
	Persist bool `koanf:"persist"`

	// Workers bounds concurrent tau runs.
	Workers int `koanf:"workers"`

	// StartDate and EndDate filter the input matches (YYYY-MM-DD or RFC 3339).
	StartDate string `koanf:"start_date"`
	EndDate   string `koanf:"end_date"`

	// Horizon extends decay to a month past the last match (YYYY-MM).
	Horizon string `koanf:"horizon"`

	// Evaluation window and options.
	TrainEnd    string `koanf:"train_end"`
	EvalStart   string `koanf:"eval_start"`
	EvalEnd     string `koanf:"eval_end"`
	EvalMode    string `koanf:"eval_mode"`
	EvalOutput  string `koanf:"eval_output"`
	EvalRecords bool   `koanf:"eval_records"`
}

// New returns a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		MaxLeaderboardLimit: 1000,
		Metrics:             true,
		SourceDriver:        "sqlite",
		SourceDSN:           "matches.db",
		SourceTable:         "matches",
		SnapshotDriver:      "sqlite",
		SnapshotDSN:         "ratings.db",
		SnapshotTable:       "ratings",
		ConnectTimeout:      30 * time.Second,
		OutputDir:           "out",
		PersistTau:          0.5,
		Persist:             true,
		Workers:             runtime.NumCPU(),
		EvalMode:            "online",
	}
}
