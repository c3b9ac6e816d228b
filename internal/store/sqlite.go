package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// The SQLite backend is a local sink for dry runs and development, so it
// creates its one table when missing.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS release_notes (
	data_source_version TEXT NOT NULL,
	country             TEXT NOT NULL,
	highlights          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (data_source_version, country)
)`

const upsertSQLite = `
	INSERT INTO release_notes (data_source_version, country, highlights)
	VALUES (?, ?, ?)
	ON CONFLICT (data_source_version, country)
	DO UPDATE SET highlights = excluded.highlights`

// SQLiteStore writes notes to a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create release_notes table: %w", err)
	}
	log.Debug().Str("stage", "persist").Str("path", path).Msg("opened sqlite store")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, n Note) error {
	if err := validate(n); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertSQLite, n.Version, n.Country, n.Highlights); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", n.Version, n.Country, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
