// Package duckdb provides small utilities for storing deallocation-profile
// snapshots in DuckDB: opening a database handle and converting integer
// stack-frame-id slices to and from DuckDB's array literal format.
package duckdb
