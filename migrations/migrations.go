// Package migrations embeds the SQL schema applied by cmd/apply-migration.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
