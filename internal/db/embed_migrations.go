package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations.
// The statements are portable between Postgres and SQLite.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
