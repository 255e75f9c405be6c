// Package migrations embeds the MetricsSink's versioned SQL schema files,
// following the same hand-rolled schema_version convention as
// pkg/store/migrations (see that package's doc comment for why
// golang-migrate's sqlite3 driver isn't used).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Files lists the embedded migration files in application order.
var Files = []string{
	"0001_init.sql",
}
