// Package migrations embeds the schema for each supported SQL dialect.
package migrations

import "embed"

// FS holds mysql/*.sql and sqlite/*.sql, applied in file name order.
//
//go:embed mysql/*.sql sqlite/*.sql
var FS embed.FS
