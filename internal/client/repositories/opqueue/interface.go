package opqueue

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
)

// Stats summarizes the queue for status displays.
type Stats struct {
	Live     int
	Dead     int
	Deferred int
}

type Repository interface {
	// Enqueue appends an entry and returns its sequence number.
	Enqueue(ctx context.Context, collection string, op models.Op, recordID string, payload []byte, now time.Time) (int64, error)
	// PeekOrdered returns up to limit live entries with seq > afterSeq in
	// ascending order. limit <= 0 means no limit.
	PeekOrdered(ctx context.Context, afterSeq int64, limit int) ([]models.QueueEntry, error)
	Get(ctx context.Context, seq int64) (*models.QueueEntry, error)
	// Remove deletes a confirmed entry. Removing an absent entry is a no-op.
	Remove(ctx context.Context, seq int64) error
	// PendingFor counts entries still queued for a record, dead ones included.
	PendingFor(ctx context.Context, collection, recordID string) (int, error)

	// MarkFailed increments attempts and defers the entry until next.
	MarkFailed(ctx context.Context, seq int64, msg string, next time.Time) error
	// Bury moves the entry to the dead-letter state.
	Bury(ctx context.Context, seq int64, msg string) error
	DeadLetters(ctx context.Context) ([]models.QueueEntry, error)
	// Requeue revives a dead entry with a fresh attempt counter.
	Requeue(ctx context.Context, seq int64) error
	Stats(ctx context.Context, now time.Time) (Stats, error)
}
