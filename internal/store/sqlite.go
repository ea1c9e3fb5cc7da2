package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS visitor_flags (
	visitor_id   TEXT PRIMARY KEY,
	show_thanks  INTEGER NOT NULL DEFAULT 0,
	completed_at TEXT NOT NULL
)`

// SQLiteStore keeps flags in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store %s: %w", path, err)
	}
	// sqlite serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise sqlite store %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Completed reports whether visitorID has submitted.
func (s *SQLiteStore) Completed(ctx context.Context, visitorID string) (bool, error) {
	if err := checkVisitor(visitorID); err != nil {
		return false, err
	}

	var showThanks bool
	err := s.db.QueryRowContext(ctx,
		`SELECT show_thanks FROM visitor_flags WHERE visitor_id = ?`, visitorID,
	).Scan(&showThanks)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read flag for visitor %s: %w", visitorID, err)
	}
	return showThanks, nil
}

// MarkCompleted records the submission of visitorID.
func (s *SQLiteStore) MarkCompleted(ctx context.Context, visitorID string) error {
	if err := checkVisitor(visitorID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitor_flags (visitor_id, show_thanks, completed_at) VALUES (?, 1, ?)
		 ON CONFLICT(visitor_id) DO UPDATE SET show_thanks = 1, completed_at = excluded.completed_at`,
		visitorID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write flag for visitor %s: %w", visitorID, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
