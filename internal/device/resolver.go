// Package device resolves the identity this install presents to the backend at login.
package device

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"xriepv1/client/internal/device/domain"
	"xriepv1/client/internal/device/repository"
)

// Resolver picks the device id and name sent at login.
type Resolver struct {
	repo     repository.Repository
	id       string
	name     string
	logger   *zap.Logger
	hostname func() (string, error)
	newID    func() string
}

// NewResolver returns a Resolver. Non-empty configuredID/configuredName win over anything derived.
func NewResolver(repo repository.Repository, configuredID, configuredName string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		repo:     repo,
		id:       strings.TrimSpace(configuredID),
		name:     strings.TrimSpace(configuredName),
		logger:   logger,
		hostname: os.Hostname,
		newID:    uuid.NewString,
	}
}

// Resolve returns the device identity. The id is the configured one, else the stored one, else a new
// UUID that is stored so the backend counts this install once. If storage fails the id still resolves
// (generated, or "unknown-device" as a last resort) and the failure is logged. The name is the
// configured one, else the hostname, else "Unknown Device".
func (r *Resolver) Resolve(ctx context.Context) domain.Device {
	return domain.Device{ID: r.resolveID(ctx), Name: r.resolveName()}
}

func (r *Resolver) resolveID(ctx context.Context) string {
	if r.id != "" {
		return r.id
	}
	if r.repo == nil {
		return domain.UnknownID
	}
	stored, err := r.repo.GetID(ctx)
	if err != nil {
		r.logger.Warn("device: load id", zap.Error(err))
	}
	if stored != "" {
		return stored
	}
	id := r.newID()
	if id == "" {
		return domain.UnknownID
	}
	if err := r.repo.SaveID(ctx, id); err != nil {
		r.logger.Warn("device: save id", zap.Error(err))
	}
	return id
}

func (r *Resolver) resolveName() string {
	if r.name != "" {
		return r.name
	}
	if h, err := r.hostname(); err == nil && strings.TrimSpace(h) != "" {
		return strings.TrimSpace(h)
	}
	return domain.UnknownName
}
