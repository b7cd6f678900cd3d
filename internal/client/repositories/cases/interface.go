package cases

import (
	"context"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
)

// Filter narrows Query. Zero-valued fields match everything.
type Filter struct {
	ReviewerID string
	Status     models.CaseStatus
	SyncStatus models.SyncStatus
	Limit      int
}

type Repository interface {
	// Get returns common.ErrNotFound when the case is absent.
	Get(ctx context.Context, id string) (*models.Case, error)
	// Put inserts or replaces the case by id.
	Put(ctx context.Context, c *models.Case) error
	// Query lists matching cases, most recently updated first.
	Query(ctx context.Context, f Filter) ([]models.Case, error)
	Delete(ctx context.Context, id string) error
	// SetSyncStatus flips only the sync tag.
	SetSyncStatus(ctx context.Context, id string, s models.SyncStatus) error
}
