// Package migrations embeds the SQL schema for saved scenes and schedules.
package migrations

import "embed"

// FS holds every *.sql file in this directory at its root.
//
//go:embed *.sql
var FS embed.FS
