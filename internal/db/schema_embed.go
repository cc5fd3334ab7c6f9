package db

import "embed"

// Schema holds the bootstrap SQL for integration tests and local development.
//
//go:embed schema.sql
var Schema string

// Migrations holds the versioned migration files applied at startup.
//
//go:embed migrations/*.sql
var Migrations embed.FS
