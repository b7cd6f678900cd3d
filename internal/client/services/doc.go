// Package services is the write surface of the client: the only code that
// writes cases, checklist answers and media to the local store and the only
// code that enqueues remote mutations.
//
// Every write returns as soon as the local transaction commits; remote
// delivery is left to the synchronizer, which services nudge through a
// Kicker.
package services
