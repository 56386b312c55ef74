package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultPath = "data/arb.db"
)

// Store wraps a SQLite DB connection holding the market catalog and the
// confirmed match table.
type Store struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

// Open creates (if needed) and opens the SQLite database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := ensureWAL(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &Store{path: path, db: db, now: time.Now}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateTables ensures the catalog and match tables exist.
func (s *Store) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropTables removes both tables.
func (s *Store) DropTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS markets; DROP TABLE IF EXISTS arb_matches;`)
	return err
}

// ClearTables truncates both tables.
func (s *Store) ClearTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM markets; DELETE FROM arb_matches;`)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS markets (
	venue TEXT NOT NULL,
	market_id TEXT NOT NULL,
	title TEXT,
	descriptor TEXT,
	category TEXT,
	first_seen_at TEXT NOT NULL,
	closed_at TEXT,
	PRIMARY KEY (venue, market_id)
);
CREATE INDEX IF NOT EXISTS markets_open_idx ON markets(venue, closed_at);
CREATE TABLE IF NOT EXISTS arb_matches (
	pair_id TEXT PRIMARY KEY,
	polymarket_id TEXT NOT NULL,
	polymarket_title TEXT,
	kalshi_id TEXT NOT NULL,
	kalshi_title TEXT,
	similarity REAL NOT NULL,
	verification_tier TEXT NOT NULL,
	observed_at TEXT NOT NULL,
	raw_json TEXT
);
`

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
