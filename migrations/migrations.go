// Package migrations embeds the goose SQL migrations so the server binary
// can apply them without a checkout of the source tree.
package migrations

import "embed"

// FS holds the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
