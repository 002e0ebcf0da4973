// Command rate replays the match history once per tau, writes the JSON
// artifacts and persists the selected run as the ratings table. With
// -from-artifact it skips the replay and persists an artifact written earlier.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	app "github.com/okian/wrestlerank/internal/app"
	"github.com/okian/wrestlerank/internal/cli"
	"github.com/okian/wrestlerank/internal/config"
	"github.com/okian/wrestlerank/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("rate: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var fromArtifact string
	cfg, err := cli.Load(ctx, "rate", os.Args[1:], func(fs *flag.FlagSet, cfg *config.Config) {
		cli.BindSource(fs, cfg)
		cli.BindSnapshot(fs, cfg)
		fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for per-tau JSON artifacts (empty disables)")
		fs.Float64Var(&cfg.PersistTau, "persist-tau", cfg.PersistTau, "tau whose run is written to the ratings table")
		fs.BoolVar(&cfg.Persist, "persist", cfg.Persist, "write the ratings table")
		fs.StringVar(&cfg.Horizon, "horizon", cfg.Horizon, "apply inactivity decay through this month (YYYY-MM)")
		fs.StringVar(&fromArtifact, "from-artifact", "", "persist this run artifact instead of replaying (its tau must equal -persist-tau)")
	})
	if err != nil {
		return err
	}
	log := logger.Get()

	if fromArtifact != "" {
		return persistArtifact(ctx, cfg, fromArtifact)
	}

	src, closeSrc, err := cli.OpenSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeSrc() }()

	opts, err := cli.ServiceOptions(cfg, src)
	if err != nil {
		return err
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if cfg.Persist {
		store, err := cli.OpenSnapshots(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		opts = append(opts, app.WithSnapshotStore(store))
	}

	res, err := app.New(opts...).Rate(ctx)
	if err != nil {
		return err
	}
	for _, path := range res.Artifacts {
		log.Info(ctx, "artifact written", logger.String("path", path))
	}
	if res.Persisted != nil {
		log.Info(ctx, "ratings table replaced",
			logger.String("tau", fmt.Sprintf("%.3f", res.Persisted.Tau)),
			logger.Int("rows", res.Persisted.Len()),
		)
	}
	return nil
}

func persistArtifact(ctx context.Context, cfg *config.Config, path string) error {
	if !cfg.Persist {
		return errors.New("-from-artifact needs -persist")
	}
	opts, err := cli.ServiceOptions(cfg, nil)
	if err != nil {
		return err
	}
	store, err := cli.OpenSnapshots(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	snap, err := app.New(append(opts, app.WithSnapshotStore(store))...).PersistArtifact(ctx, path)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "ratings table replaced from artifact",
		logger.String("path", path),
		logger.String("tau", fmt.Sprintf("%.3f", snap.Tau)),
		logger.Int("rows", snap.Len()),
	)
	return nil
}
