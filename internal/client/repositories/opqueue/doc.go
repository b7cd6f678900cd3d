// Package opqueue is the durable, strictly ordered queue of metadata
// mutations waiting to be applied remotely.
//
// Entries are keyed by an AUTOINCREMENT sequence, so ids are never reused
// even after the tail is drained. Dead-lettered entries stay in the table
// but are skipped by PeekOrdered until requeued.
package opqueue
