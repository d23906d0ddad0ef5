package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "metadata.db"

// pragmas apply to every pooled connection.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Store owns the metadata database and hands out the driven stores that
// share it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens dataDir/metadata.db, creating the directory when needed,
// and applies pending migrations. An empty dataDir means
// ~/.sercha-sync/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-sync", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path is the database file.
func (s *Store) Path() string { return s.path }

// ConnectionStore persists connection configs and cursors.
func (s *Store) ConnectionStore() driven.ConnectionStore { return &connectionStore{db: s.db} }

// CategoryStore persists categories and memberships.
func (s *Store) CategoryStore() driven.CategoryStore { return &categoryStore{db: s.db} }

// SearchLogStore persists the query log.
func (s *Store) SearchLogStore() driven.SearchLogStore { return &searchLogStore{db: s.db} }

// SchedulerStore persists scheduler tasks and their history.
func (s *Store) SchedulerStore() driven.SchedulerStore { return &schedulerStore{db: s.db} }

// withTx runs fn in a transaction and commits when fn succeeds.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// collect runs query and scans every row with scan. It never returns a
// nil slice on success.
func collect[T any](ctx context.Context, db *sql.DB, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// timeLayout is fixed width so stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatNullableTime formats t in UTC, or returns nil for the zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// parseNullableTime returns the zero time for NULL or unparsable values.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
