package services

import (
	"context"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/opqueue"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
)

// QueueService exposes the operation queue for inspection and dead-letter
// handling.
type QueueService interface {
	Pending(ctx context.Context, limit int) ([]models.QueueEntry, error)
	DeadLetters(ctx context.Context) ([]models.QueueEntry, error)
	// Requeue revives a dead entry and asks for a sync.
	Requeue(ctx context.Context, seq int64) error
	Stats(ctx context.Context) (opqueue.Stats, error)
}

type queueService struct {
	store *store.Store
	kick  Kicker
}

func NewQueueService(s *store.Store, kick Kicker) QueueService {
	return &queueService{store: s, kick: orNop(kick)}
}

func (s *queueService) Pending(ctx context.Context, limit int) ([]models.QueueEntry, error) {
	return s.store.Read().Queue.PeekOrdered(ctx, 0, limit)
}

func (s *queueService) DeadLetters(ctx context.Context) ([]models.QueueEntry, error) {
	return s.store.Read().Queue.DeadLetters(ctx)
}

func (s *queueService) Requeue(ctx context.Context, seq int64) error {
	err := s.store.Write(ctx, []string{models.CollectionQueue}, func(ctx context.Context, r store.Repos) error {
		return r.Queue.Requeue(ctx, seq)
	})
	if err != nil {
		return err
	}
	s.kick.Kick()
	return nil
}

func (s *queueService) Stats(ctx context.Context) (opqueue.Stats, error) {
	return s.store.Read().Queue.Stats(ctx, now())
}
