// Package migrations embeds the goose SQL migration files that define
// every persisted table of spec §3.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
