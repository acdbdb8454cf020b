// Package history persists a log of executed calls in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const queryTimeout = 5 * time.Second

const schemaSQL = `
CREATE TABLE IF NOT EXISTS calls (
	id            TEXT PRIMARY KEY,
	created_at    TIMESTAMP NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	method        TEXT NOT NULL,
	url           TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	status_code   INTEGER NOT NULL DEFAULT 0,
	duration_ms   INTEGER NOT NULL DEFAULT 0,
	response_body TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls (created_at DESC);
`

// ErrNotFound is returned when Get matches no record.
var ErrNotFound = errors.New("history record not found")

// Record is one executed call.
type Record struct {
	ID           string
	CreatedAt    time.Time
	Name         string
	Method       string
	URL          string
	Outcome      string
	StatusCode   int
	DurationMs   int64
	ResponseBody string
}

// Store is the SQLite-backed history store.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the per-user history database location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".jcall", "history.db"), nil
}

// Open opens (and creates, when needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add inserts a record, filling ID and CreatedAt when unset, and returns
// the stored record.
func (s *Store) Add(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (id, created_at, name, method, url, outcome, status_code, duration_ms, response_body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt, rec.Name, rec.Method, rec.URL, rec.Outcome,
		rec.StatusCode, rec.DurationMs, rec.ResponseBody)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first.
func (s *Store) List(limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, name, method, url, outcome, status_code, duration_ms, response_body
		 FROM calls ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// Get returns one record by full ID or unique ID prefix.
func (s *Store) Get(id string) (*Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, name, method, url, outcome, status_code, duration_ms, response_body
		 FROM calls WHERE id = ? OR id LIKE ? LIMIT 2`, id, id+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var matches []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous history id prefix: %s", id)
	}
}

// Prune deletes everything but the newest keep records and reports how many
// rows were removed.
func (s *Store) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM calls WHERE id NOT IN (
			SELECT id FROM calls ORDER BY created_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var rec Record
	if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Name, &rec.Method, &rec.URL,
		&rec.Outcome, &rec.StatusCode, &rec.DurationMs, &rec.ResponseBody); err != nil {
		return nil, fmt.Errorf("failed to scan history record: %w", err)
	}
	return &rec, nil
}
