package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// upsertPostgres expects a unique constraint on
// (data_source_version, country); the schema is owned elsewhere.
const upsertPostgres = `
	INSERT INTO release_notes (data_source_version, country, highlights)
	VALUES ($1, $2, $3)
	ON CONFLICT (data_source_version, country)
	DO UPDATE SET highlights = EXCLUDED.highlights`

// PostgresStore writes notes to PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and pings the database.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	// Upserts run one at a time.
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database %s: %w", Redact(dsn), err)
	}
	log.Debug().Str("stage", "persist").Str("database", cfg.ConnConfig.Database).Str("host", cfg.ConnConfig.Host).Msg("connected to postgres")
	return &PostgresStore{pool: pool}, nil
}

// NewPostgres wraps an existing pool. The caller keeps ownership of pool
// unless Close is called.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Upsert(ctx context.Context, n Note) error {
	if err := validate(n); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, upsertPostgres, n.Version, n.Country, n.Highlights); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", n.Version, n.Country, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Redact masks the password of a URL-form connection string for logging.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	return u.Redacted()
}
