// Package sqlite implements domain.LinkStore on SQLite. Local files go through
// the pure Go modernc driver; libsql:// URLs (Turso) go through libsql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
	"github.com/MrSnakeDoc/tinylink/internal/store/sqlutil"
)

// timeLayout is fixed width so TEXT comparison orders like time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const linkColumns = `id, code, target_url, total_clicks, last_clicked_at, created_at`

type Store struct {
	db     *sql.DB
	remote bool
	now    func() time.Time
}

var _ domain.LinkStore = (*Store)(nil)

// DriverFor picks the database/sql driver name for dsn.
func DriverFor(dsn string) string {
	for _, prefix := range []string{"libsql://", "wss://", "https://", "http://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "libsql"
		}
	}
	return "sqlite"
}

// Open prepares the pool for dsn. Local databases are pinned to a single
// connection: SQLite serialises writers anyway, and an in-memory database
// lives only as long as its connection.
func Open(dsn string) (*Store, error) {
	driver := DriverFor(dsn)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	remote := driver == "libsql"
	if !remote {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}
	return &Store{db: db, remote: remote, now: time.Now}, nil
}

// WithClock swaps the time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// Migrate applies connection pragmas (local only) and creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	steps := schema
	if !s.remote {
		steps = append(append([]string{}, pragmas...), schema...)
	}
	for i, stmt := range steps {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

func (s *Store) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE code = ?`, code)
	link, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return link, nil
}

// InsertIfAbsent is a single statement: the conflict clause swallows the
// duplicate and RETURNING yields no row, which is how a taken code shows up.
func (s *Store) InsertIfAbsent(ctx context.Context, code, targetURL string) (*domain.Link, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO links (code, target_url, created_at) VALUES (?, ?, ?)
		ON CONFLICT (code) DO NOTHING
		RETURNING `+linkColumns,
		code, targetURL, s.stamp())
	link, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ConflictError{Code: code}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert link: %w", err)
	}
	return link, nil
}

func (s *Store) IncrementClicksAndTouch(ctx context.Context, code string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE links
		SET total_clicks = total_clicks + 1,
		    last_clicked_at = MAX(?, created_at, COALESCE(last_clicked_at, created_at))
		WHERE code = ?`, s.stamp(), code)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE code = ?`, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// ListAll uses LIKE, which SQLite already matches case-insensitively for ASCII.
func (s *Store) ListAll(ctx context.Context, search string) ([]domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links`
	var args []any
	if search != "" {
		pattern := sqlutil.ContainsPattern(search)
		query += ` WHERE code LIKE ? ESCAPE '\' OR target_url LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := make([]domain.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}
	return links, nil
}

// scanLink reads timestamps as text; both drivers agree on that.
func scanLink(sc sqlutil.Scanner) (*domain.Link, error) {
	var (
		link        domain.Link
		lastClicked sql.NullString
		created     string
	)
	if err := sc.Scan(&link.ID, &link.Code, &link.TargetURL, &link.TotalClicks, &lastClicked, &created); err != nil {
		return nil, err
	}
	var err error
	if link.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	if lastClicked.Valid && lastClicked.String != "" {
		t, err := parseTime(lastClicked.String)
		if err != nil {
			return nil, fmt.Errorf("bad last_clicked_at %q: %w", lastClicked.String, err)
		}
		link.LastClickedAt = &t
	}
	return &link, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
