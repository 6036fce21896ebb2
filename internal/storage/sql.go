package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStorage stores values in the kv_store table created by the migrations in internal/db. It works
// against both the pgx and sqlite drivers.
type SQLStorage struct {
	db   *sql.DB
	nowF func() time.Time
}

// NewSQLStorage returns a SQLStorage using db. The kv_store table must already exist.
func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db, nowF: func() time.Time { return time.Now().UTC() }}
}

// Get returns the value for key.
func (s *SQLStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return []byte(v), nil
}

// Set upserts value under key.
func (s *SQLStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), s.nowF())
	if err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// PingContext checks the database connection.
func (s *SQLStorage) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
