// Command synth writes a reproducible synthetic match history to a match
// database or a JSON file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/wrestlerank/internal/adapters/matchsource"
	"github.com/okian/wrestlerank/internal/cli"
	"github.com/okian/wrestlerank/internal/config"
	"github.com/okian/wrestlerank/internal/synth"
	"github.com/okian/wrestlerank/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("synth: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		seed      uint64
		wrestlers int
		matches   int
		months    int
		start     string
		weights   string
		noise     float64
	)
	cfg, err := cli.Load(ctx, "synth", os.Args[1:], func(fs *flag.FlagSet, cfg *config.Config) {
		fs.StringVar(&cfg.SourceDriver, "source-driver", cfg.SourceDriver, "match database driver: sqlite or postgres")
		fs.StringVar(&cfg.SourceDSN, "source-dsn", cfg.SourceDSN, "match database DSN")
		fs.StringVar(&cfg.SourceTable, "source-table", cfg.SourceTable, "match table name")
		fs.StringVar(&cfg.SourceFile, "source-file", cfg.SourceFile, "write a JSON export instead of a database")
		fs.Uint64Var(&seed, "seed", synth.DefaultSeed, "random seed")
		fs.IntVar(&wrestlers, "wrestlers", synth.DefaultWrestlers, "roster size")
		fs.IntVar(&matches, "matches", synth.DefaultMatches, "number of matches")
		fs.IntVar(&months, "months", synth.DefaultMonths, "months covered")
		fs.StringVar(&start, "start", "2022-01-01", "first day covered")
		fs.StringVar(&weights, "weights", strings.Join(synth.DefaultWeights, ","), "comma-separated weight labels")
		fs.Float64Var(&noise, "noise", 0, "fraction of malformed matches")
	})
	if err != nil {
		return err
	}
	first, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return err
	}

	season, err := synth.New(
		synth.WithSeed(seed),
		synth.WithWrestlers(wrestlers),
		synth.WithMatches(matches),
		synth.WithSpan(first, months),
		synth.WithWeights(strings.Split(weights, ",")...),
		synth.WithNoise(noise),
	).Generate(ctx)
	if err != nil {
		return err
	}

	if cfg.SourceFile != "" {
		if err := matchsource.WriteFile(cfg.SourceFile, season.Matches); err != nil {
			return err
		}
		logger.Get().Info(ctx, "matches written", logger.String("path", cfg.SourceFile))
		return nil
	}

	src, err := matchsource.Open(ctx, cfg.SourceDriver, cfg.SourceDSN,
		matchsource.WithTable(cfg.SourceTable),
		matchsource.WithConnectTimeout(cfg.ConnectTimeout),
	)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	return src.Insert(ctx, season.Matches)
}
