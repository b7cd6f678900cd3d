// Package cases persists inspection cases in the local SQLite store.
//
// Repositories are bound to a dbx.DBTX, so the same code runs against the
// database handle for reads and against a transaction for writes.
package cases
