// Package snapshotstore persists already-frozen deallocz.Profile snapshots
// to DuckDB. It is an external consumer: nothing in this package runs on
// the sampling path, and it only ever touches a Profile after
// ProfilerHandle.Stop has returned one.
package snapshotstore
