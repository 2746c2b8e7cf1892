package postgres

import "embed"

// MigrationsFS embeds the SQL migrations so the server binary can apply
// them without access to the source tree. The goose dialect is set by the
// caller; the directory name inside the FS is "migrations".
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
