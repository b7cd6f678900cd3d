// Package store is the field client's local database: a SQLite file holding
// cases, checklist answers, media and the operation queue.
//
// Reads go through Read, which returns repositories bound to the database.
// Writes go through Write, which runs a function inside one transaction with
// repositories bound to it and, after commit, notifies subscribers of every
// collection the write declared. Live builds reactive queries on top of that.
//
// The database uses a single connection. A Write callback must only use the
// repositories it is handed; calling Read inside it blocks forever.
package store
