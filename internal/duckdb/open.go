package duckdb

import (
	"database/sql"

	_ "github.com/marcboeker/go-duckdb" // registers the "duckdb" sql driver
)

// OpenDB opens a DuckDB database at dsn. An empty dsn (or ":memory:")
// opens a transient in-memory database. The CLI calls it only when
// --snapshot-db is non-empty.
func OpenDB(dsn string) (*sql.DB, error) {
	return sql.Open("duckdb", dsn)
}
