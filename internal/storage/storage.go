// Package storage provides the key-value backends the client persists its session and device identity in.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: not found")

// Storage is a string-keyed byte store. Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value for key. Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
