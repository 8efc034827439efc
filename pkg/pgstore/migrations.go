package pgstore

import "embed"

// MigrationsDir is the directory inside Migrations holding the goose files.
const MigrationsDir = "migrations"

// Migrations holds the schema for tenants, memberships and the row-level
// secured projects table. Apply with pg.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS
