package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"xriepv1/client/internal/session/domain"
	"xriepv1/client/internal/storage"
)

// recordVersion is the schema version written into the envelope.
const recordVersion = 0

// envelope is the on-disk layout: {"state":{"user":...,"token":...},"version":0}.
type envelope struct {
	State   domain.Persisted `json:"state"`
	Version int              `json:"version"`
}

// KVRepository stores the session record as JSON under StorageKey.
type KVRepository struct {
	store storage.Storage
}

// NewKVRepository returns a session repository backed by store.
func NewKVRepository(store storage.Storage) *KVRepository {
	return &KVRepository{store: store}
}

// Load returns the persisted session, or nil if the key is absent.
// Returns an error for storage failures, undecodable records and unknown versions.
func (r *KVRepository) Load(ctx context.Context) (*domain.Persisted, error) {
	raw, err := r.store.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", StorageKey, err)
	}
	if env.Version != recordVersion {
		return nil, fmt.Errorf("session: unsupported %s version %d", StorageKey, env.Version)
	}
	return &env.State, nil
}

// Save writes p under StorageKey.
func (r *KVRepository) Save(ctx context.Context, p domain.Persisted) error {
	raw, err := json.Marshal(envelope{State: p, Version: recordVersion})
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", StorageKey, err)
	}
	return r.store.Set(ctx, StorageKey, raw)
}
