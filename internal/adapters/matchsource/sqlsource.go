package matchsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/pkg/logger"
	"github.com/okian/wrestlerank/pkg/metrics"

	_ "github.com/lib/pq"  // registers the "postgres" database/sql driver
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// SQLSource reads the matches table through database/sql.
type SQLSource struct {
	db       *sql.DB
	postgres bool
	cfg      config
}

// Open connects to driver ("sqlite" or "postgres") at dsn, retrying with
// exponential backoff until the database answers a ping.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLSource, error) {
	var name string
	switch driver {
	case "sqlite", "sqlite3":
		name = "sqlite"
	case "postgres", "pgx":
		name = "postgres"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	cfg := newConfig(opts)
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = cfg.connectTimeout
	if err := backoff.Retry(func() error { return db.PingContext(ctx) }, backoff.WithContext(strategy, ctx)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s after retries: %w", name, err)
	}
	return &SQLSource{db: db, postgres: name == "postgres", cfg: cfg}, nil
}

// NewSQLSource wraps an open handle. postgres selects $n placeholders.
func NewSQLSource(db *sql.DB, postgres bool, opts ...Option) *SQLSource {
	return &SQLSource{db: db, postgres: postgres, cfg: newConfig(opts)}
}

// DB exposes the underlying handle.
func (s *SQLSource) DB() *sql.DB { return s.db }

// Close releases the connection.
func (s *SQLSource) Close() error { return s.db.Close() }

// query pushes day-granular bounds, widened by a day for zone offsets, down to the database; Matches applies the
// exact bounds afterwards.
func (s *SQLSource) query(r Range) (string, []any) {
	var (
		where []string
		args  []any
	)
	bind := func(op string, v any) {
		args = append(args, v)
		ph := "?"
		if s.postgres {
			ph = fmt.Sprintf("$%d", len(args))
		}
		where = append(where, "date "+op+" "+ph)
	}
	if !r.Start.IsZero() {
		bind(">=", r.Start.UTC().AddDate(0, 0, -1).Format(time.DateOnly))
	}
	if !r.End.IsZero() {
		bind("<", r.End.UTC().AddDate(0, 0, 2).Format(time.DateOnly))
	}

	q := fmt.Sprintf("SELECT id, date, weightClass, winner_id, topWrestler_id, bottomWrestler_id FROM %s", s.cfg.table)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return q + " ORDER BY date, id", args
}

// Matches implements Source.
func (s *SQLSource) Matches(ctx context.Context, r Range) ([]model.Match, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	q, args := s.query(r)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		metrics.RecordErrorByComponent("matchsource", "query_failed")
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var id, date, weight, winner, top, bottom sql.NullString
		if err := rows.Scan(&id, &date, &weight, &winner, &top, &bottom); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m := model.Match{
			ID:          id.String,
			CompetitorA: top.String,
			CompetitorB: bottom.String,
			Winner:      winner.String,
			WeightClass: weight.String,
			Date:        parseDate(date.String),
		}
		if !r.Contains(m.Date) {
			continue
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	s.cfg.logger.Debug(ctx, "matches loaded", logger.Int("matches", len(out)))
	return out, nil
}

func (s *SQLSource) createTableSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id                TEXT,
	date              TEXT,
	weightClass       TEXT,
	winner_id         TEXT,
	topWrestler_id    TEXT,
	bottomWrestler_id TEXT
)`, s.cfg.table)
}

// Insert appends matches to the table, creating it when missing.
func (s *SQLSource) Insert(ctx context.Context, matches []model.Match) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.createTableSQL()); err != nil {
		return fmt.Errorf("create %s: %w", s.cfg.table, err)
	}

	placeholders := "?, ?, ?, ?, ?, ?"
	if s.postgres {
		placeholders = "$1, $2, $3, $4, $5, $6"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, date, weightClass, winner_id, topWrestler_id, bottomWrestler_id) VALUES (%s)",
		s.cfg.table, placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx, m.ID, m.Date.UTC().Format(time.RFC3339),
			m.WeightClass, m.Winner, m.CompetitorA, m.CompetitorB); err != nil {
			return fmt.Errorf("insert match %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	s.cfg.logger.Info(ctx, "matches inserted", logger.Int("matches", len(matches)))
	return nil
}
