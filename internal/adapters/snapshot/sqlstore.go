package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// SQLStore persists snapshots through database/sql. It is used with SQLite.
type SQLStore struct {
	db  *sql.DB
	cfg config
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, opts ...Option) *SQLStore {
	return newSQLStore(db, newConfig(opts))
}

func newSQLStore(db *sql.DB, cfg config) *SQLStore {
	return &SQLStore{db: db, cfg: cfg}
}

// Replace implements Store.Replace.
func (s *SQLStore) Replace(ctx context.Context, snap *model.Snapshot) (err error) {
	if snap == nil {
		return ErrNilSnapshot
	}
	start := time.Now()
	defer func() { observe(ctx, s.cfg.logger, start, snap, err) }()

	if err := s.stage(ctx, snap.Rows()); err != nil {
		return fmt.Errorf("stage snapshot: %w", err)
	}
	if err := s.swap(ctx); err != nil {
		return fmt.Errorf("swap snapshot: %w", err)
	}
	return nil
}

func (s *SQLStore) stage(ctx context.Context, rows []model.Row) error {
	staging := s.cfg.staging()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(staging)); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		staging, strings.Join(columns, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, values(r)...); err != nil {
			return fmt.Errorf("insert %s: %w", r.Bucket(), err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) swap(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.cfg.table); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", s.cfg.staging(), s.cfg.table)); err != nil {
		return err
	}
	return tx.Commit()
}

// Load implements Store.Load. It returns ErrNoSnapshot before the first Replace.
func (s *SQLStore) Load(ctx context.Context) ([]model.Row, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", s.cfg.table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", s.cfg.table, err)
	}

	rows, err := s.db.QueryContext(ctx, selectSQL(s.cfg.table))
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

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }
