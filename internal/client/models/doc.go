// Package models defines the records kept in the field client's local store:
// inspection cases, checklist answers, captured media and queued mutations.
//
// JSON tags describe the row shape exchanged with the remote system.
// Fields tagged "-" are local bookkeeping and never leave the device.
package models
