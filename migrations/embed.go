// Package migrations embeds the versioned schema applied by golang-migrate at startup.
package migrations

import "embed"

// FS holds every *.sql migration.
//
//go:embed *.sql
var FS embed.FS
