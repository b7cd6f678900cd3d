package models

import (
	"encoding/json"
	"time"
)

// QueueEntry is one durable metadata mutation waiting for the remote.
// Entries replay strictly by ascending Seq.
type QueueEntry struct {
	Seq        int64
	Collection string
	Op         Op
	RecordID   string
	Payload    json.RawMessage
	CreatedAt  time.Time

	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	Dead          bool
}

// Ready reports whether the entry is out of backoff at now.
func (e *QueueEntry) Ready(now time.Time) bool {
	return !e.Dead && !now.Before(e.NextAttemptAt)
}
