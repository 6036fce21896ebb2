package repository

import (
	"context"
	"errors"
	"strings"

	"xriepv1/client/internal/storage"
)

// StorageKey is the key the generated device id is stored under.
const StorageKey = "device-id"

// Repository defines persistence for this install's device id.
type Repository interface {
	// GetID returns the stored id, or "" if none was saved.
	GetID(ctx context.Context) (string, error)
	SaveID(ctx context.Context, id string) error
}

// KVRepository keeps the device id in a storage backend.
type KVRepository struct {
	store storage.Storage
}

// NewKVRepository returns a device repository backed by store.
func NewKVRepository(store storage.Storage) *KVRepository {
	return &KVRepository{store: store}
}

// GetID returns the stored id, or "" if the key is absent.
func (r *KVRepository) GetID(ctx context.Context) (string, error) {
	raw, err := r.store.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// SaveID stores id.
func (r *KVRepository) SaveID(ctx context.Context, id string) error {
	return r.store.Set(ctx, StorageKey, []byte(id))
}
