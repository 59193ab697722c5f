package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olyamironova/depthbook/internal/port"
)

const schema = `
CREATE UNLOGGED TABLE IF NOT EXISTS orderbook_cache (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`

var _ port.CacheStore = (*Store)(nil)

// Store is a CacheStore on a Postgres UNLOGGED table. Rows past expires_at
// are invisible to Get and removed by Purge.
type Store struct {
	pool *pgxpool.Pool
}

// call Close when finish to work with database.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pg: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `
SELECT value FROM orderbook_cache
WHERE key = $1 AND expires_at > now()
`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pg: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO orderbook_cache(key, value, expires_at)
VALUES($1, $2, now() + $3::bigint * interval '1 millisecond')
ON CONFLICT (key) DO UPDATE SET
  value = EXCLUDED.value,
  expires_at = EXCLUDED.expires_at
`, key, value, ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("pg: set %s: %w", key, err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM orderbook_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("pg: purge: %w", err)
	}
	return tag.RowsAffected(), nil
}
