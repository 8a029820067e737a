package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps every blob in the kv_store table (key TEXT PRIMARY KEY,
// value JSONB). Upserts are last-writer-wins.
type PostgresStore struct {
	pool *pgxpool.Pool

	mu        sync.RWMutex
	observers []func(key string)
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := s.pool.QueryRow(ctx, "SELECT value FROM kv_store WHERE key = $1", key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return raw, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	query := `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.notify(key)
	return nil
}

func (s *PostgresStore) Subscribe(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *PostgresStore) notify(key string) {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(key)
	}
}
