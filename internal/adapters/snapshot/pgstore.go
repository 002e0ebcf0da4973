package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// PGStore persists snapshots to PostgreSQL, bulk loading the staging table with COPY.
type PGStore struct {
	pool *pgxpool.Pool
	cfg  config
}

// NewPGStore wraps an open pool.
func NewPGStore(pool *pgxpool.Pool, opts ...Option) *PGStore {
	return newPGStore(pool, newConfig(opts))
}

func newPGStore(pool *pgxpool.Pool, cfg config) *PGStore {
	return &PGStore{pool: pool, cfg: cfg}
}

// Replace implements Store.Replace.
func (s *PGStore) Replace(ctx context.Context, snap *model.Snapshot) (err error) {
	if snap == nil {
		return ErrNilSnapshot
	}
	start := time.Now()
	defer func() { observe(ctx, s.cfg.logger, start, snap, err) }()

	staging := s.cfg.staging()
	if _, err := s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return fmt.Errorf("drop staging: %w", err)
	}
	if _, err := s.pool.Exec(ctx, createTableSQL(staging)); err != nil {
		return fmt.Errorf("create staging: %w", err)
	}

	rows := snap.Rows()
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) { return values(rows[i]), nil })
	if _, err := s.pool.CopyFrom(ctx, pgx.Identifier{staging}, columns, src); err != nil {
		return fmt.Errorf("copy staging: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin swap: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stmts := []string{
		"DROP TABLE IF EXISTS " + s.cfg.table,
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", staging, s.cfg.table),
		fmt.Sprintf("ALTER INDEX %s_pkey RENAME TO %s_pkey", staging, s.cfg.table),
	}
	for _, q := range stmts {
		if _, err := tx.Exec(ctx, q); err != nil {
			return fmt.Errorf("swap: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit swap: %w", err)
	}
	return nil
}

// Load implements Store.Load. It returns ErrNoSnapshot before the first Replace.
func (s *PGStore) Load(ctx context.Context) ([]model.Row, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", s.cfg.table).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", s.cfg.table, err)
	}
	if !exists {
		return nil, ErrNoSnapshot
	}

	rows, err := s.pool.Query(ctx, selectSQL(s.cfg.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.cfg.table, err)
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.cfg.table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
