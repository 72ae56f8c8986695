package migrations

import "embed"

// FS contains embedded SQLite migrations for the universe store.
//
//go:embed *.sql
var FS embed.FS
