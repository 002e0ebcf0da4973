// Package snapshot persists one rating run as the canonical ratings table.
//
// Every backend replaces the table by write-then-swap: rows go to a staging
// table first, then a single transaction drops the live table and renames
// the staging table in its place. A failure at any step leaves the previous
// table fully intact.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/pkg/logger"
	"github.com/okian/wrestlerank/pkg/metrics"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Store persists and reads back the canonical ratings table.
type Store interface {
	// Replace overwrites the whole table with snap.
	Replace(ctx context.Context, snap *model.Snapshot) error
	// Load returns every persisted row ordered by weight class, then competitor.
	Load(ctx context.Context) ([]model.Row, error)
	Close() error
}

// columns in insert and select order.
var columns = []string{
	"competitor_id", "weight_class", "rating", "rd", "volatility",
	"matches_played", "last_active", "tau", "run_id",
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
	competitor_id  TEXT NOT NULL,
	weight_class   INTEGER NOT NULL,
	rating         DOUBLE PRECISION NOT NULL,
	rd             DOUBLE PRECISION NOT NULL,
	volatility     DOUBLE PRECISION NOT NULL,
	matches_played INTEGER NOT NULL,
	last_active    TEXT NOT NULL,
	tau            DOUBLE PRECISION NOT NULL,
	run_id         TEXT NOT NULL,
	PRIMARY KEY (competitor_id, weight_class)
)`, table)
}

func selectSQL(table string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY weight_class, competitor_id", strings.Join(columns, ", "), table)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (model.Row, error) {
	var (
		r    model.Row
		last string
	)
	if err := s.Scan(&r.CompetitorID, &r.WeightClass, &r.Rating, &r.RD, &r.Volatility,
		&r.MatchesPlayed, &last, &r.Tau, &r.RunID); err != nil {
		return model.Row{}, err
	}
	m, err := model.ParseMonth(last)
	if err != nil {
		return model.Row{}, err
	}
	r.LastActive = m
	return r, nil
}

func values(r model.Row) []any {
	return []any{r.CompetitorID, r.WeightClass, r.Rating, r.RD, r.Volatility,
		r.MatchesPlayed, r.LastActive.Date(), r.Tau, r.RunID}
}

// Open connects to driver ("sqlite", "postgres" or "pgx") at dsn, retrying
// with exponential backoff until the connection answers a ping.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	cfg := newConfig(opts)

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = cfg.connectTimeout
	retry := backoff.WithContext(strategy, ctx)

	switch driver {
	case "sqlite", "sqlite3":
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := backoff.Retry(func() error { return db.PingContext(ctx) }, retry); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping sqlite after retries: %w", err)
		}
		return newSQLStore(db, cfg), nil

	case "postgres", "pgx":
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := backoff.Retry(func() error { return pool.Ping(ctx) }, retry); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres after retries: %w", err)
		}
		return newPGStore(pool, cfg), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// observe records the outcome of a replace.
func observe(ctx context.Context, log logger.Logger, start time.Time, snap *model.Snapshot, err error) {
	metrics.RecordPersistLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordPersistError()
		metrics.RecordErrorByComponent("snapshot", "replace_failed")
		log.Error(ctx, "snapshot replace failed", logger.Error(err))
		return
	}
	metrics.UpdatePersistedRows(snap.Len())
	log.Info(ctx, "snapshot persisted",
		logger.String("tau", fmt.Sprintf("%.3f", snap.Tau)),
		logger.String("run_id", snap.RunID),
		logger.Int("rows", snap.Len()),
	)
}
