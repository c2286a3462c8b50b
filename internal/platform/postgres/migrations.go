package postgres

import "embed"

// MigrationsDir is the directory inside Migrations that holds the goose files.
const MigrationsDir = "migrations"

// MigrationsTable is the goose version table used by the server and tests.
const MigrationsTable = "schema_migrations"

// Migrations contains the SQL migrations for the schema, in goose format.
//
//go:embed migrations/*.sql
var Migrations embed.FS
