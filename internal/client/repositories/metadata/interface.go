package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyLastPullAt = "last_pull_at"
	KeyReviewerID = "reviewer_id"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	GetTime(ctx context.Context, key string) (time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}
