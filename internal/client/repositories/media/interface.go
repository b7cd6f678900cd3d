package media

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
)

// Filter narrows Query.
type Filter struct {
	CaseID          string
	ChecklistItemID string
	Status          models.MediaStatus
	IncludeDeleted  bool
}

// Repository describes CRUD and workflow operations for MediaItem records.
type Repository interface {
	Get(ctx context.Context, id string) (*models.MediaItem, error)
	Put(ctx context.Context, m *models.MediaItem) error
	Query(ctx context.Context, f Filter) ([]models.MediaItem, error)
	// Delete physically removes the row.
	Delete(ctx context.Context, id string) error

	// DueForUpload returns up to limit pending_upload items with id > afterID
	// whose backoff has elapsed at now, ordered by id.
	DueForUpload(ctx context.Context, now time.Time, afterID string, limit int) ([]models.MediaItem, error)
	// DueForDelete is DueForUpload for pending_delete items.
	DueForDelete(ctx context.Context, now time.Time, afterID string, limit int) ([]models.MediaItem, error)

	// MarkUploaded stores the remote reference and flips the item to synced
	// only if it is still pending_upload. It reports whether the flip happened.
	MarkUploaded(ctx context.Context, id, remotePath, url string, now time.Time) (bool, error)
	// MarkFailed records a failed attempt for an item currently in from and
	// moves it to to (equal to from while retries remain).
	MarkFailed(ctx context.Context, id string, from, to models.MediaStatus, msg string, next time.Time) error
	// SetStatus moves an item from one status to another.
	SetStatus(ctx context.Context, id string, from, to models.MediaStatus, msg string) error
	// SoftDelete flags the item deleted and pending_delete.
	SoftDelete(ctx context.Context, id string, now time.Time) error
	// ClearLocalPath forgets the on-disk payload after it was discarded.
	ClearLocalPath(ctx context.Context, id string) error
	// Reset returns a terminally failed item to its pending state.
	Reset(ctx context.Context, id string) (models.MediaStatus, error)
	// CountByStatus reports non-synced workload for status displays.
	CountByStatus(ctx context.Context) (map[models.MediaStatus]int, error)
}
