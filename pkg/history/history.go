// Package history keeps the list of recently opened files and folders in a
// small SQLite database under the user cache directory.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mdview/pkg/logger"

	_ "github.com/mattn/go-sqlite3"
)

type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// DefaultCheckTimeout bounds each existence check during revalidation.
const DefaultCheckTimeout = time.Second

const lastPrunedKey = "last_pruned"

type Entry struct {
	ID       int64     `json:"id" yaml:"id"`
	Path     string    `json:"path" yaml:"path"`
	Kind     Kind      `json:"kind" yaml:"kind"`
	OpenedAt time.Time `json:"openedAt" yaml:"opened_at"`
}

type Store struct {
	db    *sql.DB
	limit int

	mu   sync.Mutex
	last int64
}

// Open opens or creates the database at dbPath. Entries beyond limit are
// dropped oldest first on every Record; limit <= 0 keeps everything.
func Open(dbPath string, limit int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The Core process serves one request at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, limit: limit}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			opened_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_opened_at ON history(opened_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// stamp returns a strictly increasing timestamp in nanoseconds so entries
// recorded within one clock tick keep their order.
func (s *Store) stamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := time.Now().UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return n
}

// Record moves path to the top of the list, inserting it if new.
func (s *Store) Record(path string, kind Kind) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO history (path, kind, opened_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET kind = excluded.kind, opened_at = excluded.opened_at
	`, path, string(kind), s.stamp())
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}

	if s.limit > 0 {
		_, err = tx.Exec(`
			DELETE FROM history WHERE id NOT IN (
				SELECT id FROM history ORDER BY opened_at DESC LIMIT ?
			)
		`, s.limit)
		if err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns up to limit entries, most recent first. limit <= 0 returns
// all of them.
func (s *Store) List(limit int) ([]Entry, error) {
	query := `SELECT id, path, kind, opened_at FROM history ORDER BY opened_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var kind string
		var openedAt int64
		if err := rows.Scan(&e.ID, &e.Path, &kind, &openedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.OpenedAt = time.Unix(0, openedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

func (s *Store) Remove(path string) error {
	if _, err := s.db.Exec(`DELETE FROM history WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to remove history entry: %w", err)
	}
	return nil
}

func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Prune revalidates every entry and deletes the stale ones, returning what
// was removed.
func (s *Store) Prune(ctx context.Context, timeout time.Duration) ([]Entry, error) {
	entries, err := s.List(0)
	if err != nil {
		return nil, err
	}
	_, stale := Revalidate(ctx, entries, timeout)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`DELETE FROM history WHERE id = ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range stale {
		if _, err := stmt.Exec(e.ID); err != nil {
			return nil, fmt.Errorf("failed to delete history entry: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, lastPrunedKey, time.Now().UnixNano()); err != nil {
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if len(stale) > 0 {
		logger.Info().Int("removed", len(stale)).Msg("pruned stale history entries")
	}
	return stale, nil
}

// LastPruned returns when Prune last completed.
func (s *Store) LastPruned() (time.Time, bool, error) {
	var value int64
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, lastPrunedKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read metadata: %w", err)
	}
	return time.Unix(0, value), true, nil
}
