// Package migrate runs storage migrations from embedded SQL files using golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"xriepv1/client/internal/db"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Run applies migrations in the given direction against databaseURL, which must use the
// postgres:// (or postgresql://) or sqlite:// scheme. direction must be "up" or "down".
// Returns nil on success, including when there is nothing to apply.
func Run(databaseURL string, direction string) error {
	if strings.TrimSpace(databaseURL) == "" {
		return errors.New("storage database URL is not set; use STORAGE_DRIVER=sqlite or set DATABASE_URL for postgres")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}
	if !supportedScheme(databaseURL) {
		return fmt.Errorf("migrate: unsupported database URL scheme in %q", databaseURL)
	}

	sourceDriver, err := iofs.New(db.MigrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	}
	return nil
}

func supportedScheme(databaseURL string) bool {
	for _, prefix := range []string{"postgres://", "postgresql://", "sqlite://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return true
		}
	}
	return false
}
