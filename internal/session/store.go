package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultBusyTimeout = 5000 // milliseconds

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS selections (
		user_id      TEXT PRIMARY KEY,
		channel_id   TEXT NOT NULL,
		channel_name TEXT NOT NULL DEFAULT '',
		updated_at   TEXT NOT NULL
	)`,
}

// Store keeps user selections in SQLite so a pending choice survives a
// restart. Expired rows are filtered on read and removed by Prune.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the selection database at path. A non-positive
// ttl uses DefaultTTL. The caller closes the store when done.
//
// The database uses WAL mode, a 5 s busy timeout, and a single connection
// (SQLite serialises writes).
func Open(path string, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("session: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: set busy_timeout: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("session: migrate: %w", err)
		}
	}

	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores or replaces a user's pending channel selection.
func (s *Store) Set(ctx context.Context, sel Selection) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO selections (user_id, channel_id, channel_name, updated_at)
		VALUES (?, ?, ?, ?)`,
		sel.UserID, sel.ChannelID, sel.ChannelName,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("session: set selection: %w", err)
	}
	return nil
}

// Get returns the user's pending selection, or false when none exists or
// the stored one has expired (expired rows are deleted on the way out).
func (s *Store) Get(ctx context.Context, userID string) (Selection, bool, error) {
	var sel Selection
	var updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, channel_id, channel_name, updated_at
		FROM selections WHERE user_id = ?`,
		userID,
	).Scan(&sel.UserID, &sel.ChannelID, &sel.ChannelName, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Selection{}, false, nil
	}
	if err != nil {
		return Selection{}, false, fmt.Errorf("session: get selection: %w", err)
	}

	sel.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Selection{}, false, fmt.Errorf("session: parse updated_at: %w", err)
	}
	if s.now().Sub(sel.UpdatedAt) > s.ttl {
		_ = s.clear(ctx, userID)
		return Selection{}, false, nil
	}
	return sel, true, nil
}

// Clear removes a user's pending selection, typically after the report
// request it was staged for completes.
func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.clear(ctx, userID)
}

func (s *Store) clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM selections WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("session: clear selection: %w", err)
	}
	return nil
}

// Prune removes every expired selection and returns how many were dropped.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, "DELETE FROM selections WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: prune count: %w", err)
	}
	return n, nil
}
