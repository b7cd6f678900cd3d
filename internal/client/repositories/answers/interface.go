package answers

import (
	"context"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
)

// Filter narrows Query. A nil Synced matches both states.
type Filter struct {
	CaseID string
	Synced *bool
}

type Repository interface {
	Get(ctx context.Context, id string) (*models.ChecklistAnswer, error)
	// GetByKey looks an answer up by its natural key.
	GetByKey(ctx context.Context, caseID, questionKey string) (*models.ChecklistAnswer, error)
	// Put upserts by (case_id, question_key), keeping the stored id.
	Put(ctx context.Context, a *models.ChecklistAnswer) error
	Query(ctx context.Context, f Filter) ([]models.ChecklistAnswer, error)
	Delete(ctx context.Context, id string) error
	MarkSynced(ctx context.Context, id string) error
}
