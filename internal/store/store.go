// Package store persists release notes keyed on (data source version,
// country). Upserts overwrite only the highlights of an existing row.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedURL is returned by Open for a connection string it cannot
// map to a backend.
var ErrUnsupportedURL = errors.New("unsupported database url")

// Note is one row of the release_notes table.
type Note struct {
	Version    string
	Country    string
	Highlights string
}

// Store is the persistence collaborator used by the pipeline.
type Store interface {
	// Upsert inserts n or, when (Version, Country) exists, replaces its
	// highlights. Calling it twice with the same note is a no-op.
	Upsert(ctx context.Context, n Note) error
	Close() error
}

// Open picks a backend from dsn:
//
//	postgres://... or postgresql://...  PostgreSQL via pgx
//	sqlite://path, or a path ending in .db/.sqlite/.sqlite3  SQLite
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedURL)
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return openSQLite(ctx, dsn[len("sqlite://"):])
	}
	switch strings.ToLower(filepath.Ext(dsn)) {
	case ".db", ".sqlite", ".sqlite3":
		return openSQLite(ctx, dsn)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, Redact(dsn))
}

func openSQLite(ctx context.Context, path string) (Store, error) {
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func validate(n Note) error {
	if strings.TrimSpace(n.Version) == "" {
		return errors.New("note version is required")
	}
	if strings.TrimSpace(n.Country) == "" {
		return errors.New("note country is required")
	}
	return nil
}
