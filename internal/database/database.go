// Package database is the sqlite-backed store for saved filter presets and
// export audit rows. Bookings themselves are never persisted here; the
// upstream backend is their system of record.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

type DB struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS filter_presets (
            id TEXT PRIMARY KEY,
            role TEXT NOT NULL,
            viewer_id TEXT NOT NULL,
            name TEXT NOT NULL,
            search_term TEXT NOT NULL DEFAULT '',
            status_filter TEXT NOT NULL DEFAULT 'all',
            date_filter TEXT NOT NULL DEFAULT 'all',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS export_audit (
            id TEXT PRIMARY KEY,
            role TEXT NOT NULL,
            viewer_id TEXT NOT NULL,
            format TEXT NOT NULL,
            row_count INTEGER NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_presets_viewer ON filter_presets(role, viewer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_export_audit_viewer ON export_audit(role, viewer_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
