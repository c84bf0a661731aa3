// Package postgres implements domain.LinkStore on PostgreSQL via lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/store/sqlutil"
)

// uniqueViolation is the SQLSTATE raised when the code index rejects a row.
const uniqueViolation = "23505"

const linkColumns = `id, code, target_url, total_clicks, last_clicked_at, created_at`

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Store struct {
	db *sql.DB
}

var _ domain.LinkStore = (*Store)(nil)

// Open creates the pool. It does not touch the network; call Ping (or go
// through connect.WithRetry) and Migrate before serving.
func Open(dsn string, opts Options) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return &Store{db: db}, nil
}

// New wraps an existing pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the links table and its indexes if missing.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE code = $1`, code)
	link, err := sqlutil.ScanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return link, nil
}

// InsertIfAbsent relies on the unique index on code. A concurrent insert of
// the same code fails with 23505 in exactly one of the two transactions.
func (s *Store) InsertIfAbsent(ctx context.Context, code, targetURL string) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO links (code, target_url) VALUES ($1, $2) RETURNING `+linkColumns,
		code, targetURL)
	link, err := sqlutil.ScanLink(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.ConflictError{Code: code}
		}
		return nil, fmt.Errorf("failed to insert link: %w", err)
	}
	return link, nil
}

func (s *Store) IncrementClicksAndTouch(ctx context.Context, code string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE links
		SET total_clicks = total_clicks + 1,
		    last_clicked_at = GREATEST(clock_timestamp(), created_at, last_clicked_at)
		WHERE code = $1`, code)
	if err != nil {
		return 0, fmt.Errorf("failed to record click: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteByCode(ctx context.Context, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListAll(ctx context.Context, search string) ([]domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links`
	var args []any
	if search != "" {
		query += ` WHERE code ILIKE $1 ESCAPE '\' OR target_url ILIKE $1 ESCAPE '\'`
		args = append(args, sqlutil.ContainsPattern(search))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return sqlutil.CollectLinks(rows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
