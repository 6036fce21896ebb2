// migrate applies the session storage schema for the sqlite and postgres drivers.
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate down
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xriepv1/client/internal/config"
	"xriepv1/client/internal/db/migrate"
)

func newMigrateCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or roll back the session storage schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, direction := range []string{"up", "down"} {
		root.AddCommand(&cobra.Command{
			Use:   direction,
			Short: fmt.Sprintf("Run the %s migrations against the configured STORAGE_DRIVER", direction),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return apply(direction)
			},
		})
	}
	return root
}

func apply(direction string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := zap.L().With(zap.String("driver", cfg.StorageDriver), zap.String("direction", direction))

	url := cfg.MigrationURL()
	if url == "" {
		logger.Info("storage driver has no schema; nothing to migrate")
		return nil
	}
	if err := migrate.Run(url, direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema already current")
			return nil
		}
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	if err := newMigrateCmd().Execute(); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
