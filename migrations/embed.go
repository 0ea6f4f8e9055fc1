// Package migrations embeds the SQL migrations for the credential database.
// Files follow golang-migrate naming: <version>_<name>.<up|down>.sql.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
