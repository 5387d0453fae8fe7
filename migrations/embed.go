// Package migrations embeds the SQLite schema of the bill sheet
package migrations

import "embed"

// FS holds the numbered migration files
//
//go:embed *.sql
var FS embed.FS
