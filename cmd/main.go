// Command wrestlerank serves the persisted leaderboards over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/wrestlerank/internal/adapters/http/api"
	app "github.com/okian/wrestlerank/internal/app"
	"github.com/okian/wrestlerank/internal/cli"
	"github.com/okian/wrestlerank/internal/config"
	"github.com/okian/wrestlerank/pkg/logger"
	"github.com/okian/wrestlerank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("wrestlerank: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := cli.Load(ctx, "wrestlerank", os.Args[1:], func(fs *flag.FlagSet, cfg *config.Config) {
		fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
		fs.DurationVar(&cfg.RefreshInterval, "refresh", cfg.RefreshInterval, "ratings table reload interval (0 loads once)")
		fs.IntVar(&cfg.MaxLeaderboardLimit, "max-limit", cfg.MaxLeaderboardLimit, "largest accepted leaderboard limit")
		cli.BindSnapshot(fs, cfg)
	})
	if err != nil {
		return err
	}
	log := logger.Get()
	metrics.RegisterRuntimeCollectors()

	store, err := cli.OpenSnapshots(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := app.New(
		app.WithLogger(log),
		app.WithSnapshotStore(store),
		app.WithRefreshInterval(cfg.RefreshInterval),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc.Ranking(), svc, cfg.MaxLeaderboardLimit).Routes(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}
