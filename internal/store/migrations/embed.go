// Package migrations embeds the SQL schema for the SQLite entry store.
package migrations

import "embed"

// FS holds all *.sql migration files. Pass it to goose.NewProvider.
//
//go:embed *.sql
var FS embed.FS
