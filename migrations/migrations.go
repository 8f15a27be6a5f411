// Package migrations embeds the schema migrations applied by the migration
// commands and by store tests.
package migrations

import "embed"

// Postgres holds the relational ledger schema. The statements are kept
// portable so the same files also build the SQLite store.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// ClickHouse holds the block archive schema read by the replay source.
//
//go:embed clickhouse/*.sql
var ClickHouse embed.FS
