package storage

import (
	"database/sql"
	"fmt"

	"xriepv1/client/internal/config"
	"xriepv1/client/internal/db"
	"xriepv1/client/internal/db/migrate"
)

// Open builds the Storage selected by cfg.StorageDriver. For sqlite and postgres the schema is migrated
// up first. The returned close func releases the database handle and is safe to call for every driver.
func Open(cfg *config.Config) (Storage, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StorageDriver {
	case config.StorageMemory:
		return NewMemoryStorage(), noop, nil
	case config.StorageFile, "":
		s, err := NewFileStorage(cfg.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.StorageSQLite, config.StoragePostgres:
		var (
			conn *sql.DB
			err  error
		)
		if cfg.StorageDriver == config.StorageSQLite {
			// Opening first creates the parent directory the migration driver expects.
			conn, err = db.OpenSQLite(cfg.StorageDSN())
		} else {
			conn, err = db.Open(cfg.StorageDSN())
		}
		if err != nil {
			return nil, nil, fmt.Errorf("storage: open %s: %w", cfg.StorageDriver, err)
		}
		if err := migrate.Run(cfg.MigrationURL(), "up"); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("storage: migrate %s: %w", cfg.StorageDriver, err)
		}
		return NewSQLStorage(conn), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}
