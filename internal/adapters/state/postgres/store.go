package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/augusttoleao/nfse-client/internal/core/state"
)

// Store keeps client state in the client_state table, letting several
// workstations share one selection.
type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewStore wraps a pool whose schema has been migrated.
func NewStore(pool *pgxpool.Pool, log *slog.Logger) state.Store {
	return &Store{pool: pool, log: log}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT state_value FROM client_state WHERE state_key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read state %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO client_state (state_key, state_value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (state_key) DO UPDATE SET state_value = EXCLUDED.state_value, updated_at = NOW()`,
		key, value)
	if err != nil {
		return fmt.Errorf("write state %s: %w", key, err)
	}

	s.log.Debug("state persisted", "key", key, "rows", tag.RowsAffected())
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM client_state WHERE state_key = $1`, key); err != nil {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	return nil
}

// Ping checks the pool can still reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
