package postgres

import "embed"

// MigrationsFS embeds the goose SQL migrations so the server binary can
// apply them without a copy of the source tree on disk.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsDir is the path of the migration files inside MigrationsFS.
const MigrationsDir = "migrations"
