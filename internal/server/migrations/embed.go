// Package migrations embeds the goose migrations for every SQL dialect the
// user store supports, one directory per dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS
