// Package migrations embeds the IndexStore's versioned SQL schema files.
//
// golang-migrate's sqlite3 driver requires cgo (mattn/go-sqlite3), which
// conflicts with the pure-Go glebarez/sqlite driver the store connects
// through. Versioning is instead tracked by hand in a schema_version table,
// one file per version, applied in order inside a single transaction.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Files lists the embedded migration files in application order.
var Files = []string{
	"0001_init.sql",
}
