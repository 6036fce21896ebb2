package repository

import (
	"context"

	"xriepv1/client/internal/session/domain"
)

// StorageKey is the key the session record is stored under.
const StorageKey = "auth-storage"

// Repository defines persistence for the session record.
type Repository interface {
	// Load returns the persisted session, or nil if none was saved.
	Load(ctx context.Context) (*domain.Persisted, error)
	// Save replaces the persisted session.
	Save(ctx context.Context, p domain.Persisted) error
}
