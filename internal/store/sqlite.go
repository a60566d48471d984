package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spec-kit/ticket-tracker/internal/config"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_records (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
)`

// SQLite backs the Store with an embedded database file. Of the available
// backends it is the closest analog to the browser local storage this data
// model came from: durable, local, and server-less.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database file and bootstraps the
// schema.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}

	// modernc.org/sqlite serializes writes internally; a single connection
	// avoids SQLITE_BUSY on overlapping writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: bootstrap kv_records: %w", err)
	}

	logger.Info("opened sqlite store", zap.String("path", cfg.Path))
	return &SQLite{db: db}, nil
}

// Get fetches the raw record under key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_records WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the record under key.
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_records (key, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// Delete removes the record; absent keys are not an error.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	return nil
}

// Ping verifies the database file is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not configured")
	}
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
