// Package migrations embeds the schema for the SQLite embedding cache.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files in version order.
//
//go:embed *.sql
var FS embed.FS
