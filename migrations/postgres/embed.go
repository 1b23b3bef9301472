// Package migrations embebe las migraciones SQL (formato goose) del store PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
