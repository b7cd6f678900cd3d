package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/answers"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
)

type ChecklistService interface {
	// Save upserts the answer for (caseID, key), marks it unsynced and
	// queues the full row.
	Save(ctx context.Context, caseID, key string, v models.Value, note string) (*models.ChecklistAnswer, error)
	// SaveRaw parses raw against the question type, then saves.
	SaveRaw(ctx context.Context, caseID, key, raw, note string) (*models.ChecklistAnswer, error)
	List(ctx context.Context, caseID string) ([]models.ChecklistAnswer, error)
	Watch(ctx context.Context, caseID string) <-chan store.Snapshot[[]models.ChecklistAnswer]
	// CacheFromRemote merges remote rows; unsynced local answers are kept.
	// A synced local answer takes the remote id for its question.
	CacheFromRemote(ctx context.Context, rows []remote.Row) (int, error)
	Catalog() []models.Question
}

type checklistService struct {
	store *store.Store
	kick  Kicker
	log   logging.Logger
}

func NewChecklistService(s *store.Store, kick Kicker, log logging.Logger) ChecklistService {
	if log == nil {
		log = logging.Nop()
	}
	return &checklistService{store: s, kick: orNop(kick), log: log.With("module", "checklist")}
}

func (s *checklistService) Save(ctx context.Context, caseID, key string, v models.Value, note string) (*models.ChecklistAnswer, error) {
	q, err := models.LookupQuestion(key)
	if err != nil {
		return nil, err
	}
	if err := q.Check(v); err != nil {
		return nil, err
	}

	var out *models.ChecklistAnswer
	err = s.store.Write(ctx, []string{models.CollectionAnswers, models.CollectionQueue}, func(ctx context.Context, r store.Repos) error {
		if _, err := r.Cases.Get(ctx, caseID); err != nil {
			return err
		}

		op := models.OpUpdate
		a, err := r.Answers.GetByKey(ctx, caseID, key)
		if errors.Is(err, common.ErrNotFound) {
			op = models.OpInsert
			a = &models.ChecklistAnswer{ID: newID(), CaseID: caseID, QuestionKey: key}
		} else if err != nil {
			return err
		}

		t := now()
		a.Category = q.Category
		a.SetValue(v)
		a.Note = note
		a.UpdatedAt = t
		a.IsSynced = false
		if err := r.Answers.Put(ctx, a); err != nil {
			return err
		}
		if err := enqueue(ctx, r, models.CollectionAnswers, op, a.ID, a, t); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.kick.Kick()
	return out, nil
}

func (s *checklistService) SaveRaw(ctx context.Context, caseID, key, raw, note string) (*models.ChecklistAnswer, error) {
	q, err := models.LookupQuestion(key)
	if err != nil {
		return nil, err
	}
	v, err := models.ParseValue(q, raw)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, caseID, key, v, note)
}

func (s *checklistService) List(ctx context.Context, caseID string) ([]models.ChecklistAnswer, error) {
	return s.store.Read().Answers.Query(ctx, answers.Filter{CaseID: caseID})
}

func (s *checklistService) Watch(ctx context.Context, caseID string) <-chan store.Snapshot[[]models.ChecklistAnswer] {
	return store.Live(ctx, s.store, func(ctx context.Context, r store.Repos) ([]models.ChecklistAnswer, error) {
		return r.Answers.Query(ctx, answers.Filter{CaseID: caseID})
	}, models.CollectionAnswers)
}

func (s *checklistService) CacheFromRemote(ctx context.Context, rows []remote.Row) (int, error) {
	decoded := make([]models.ChecklistAnswer, 0, len(rows))
	for _, row := range rows {
		var a models.ChecklistAnswer
		if err := remote.FromRow(row, &a); err != nil {
			return 0, err
		}
		if _, err := models.LookupQuestion(a.QuestionKey); err != nil {
			s.log.Warn(ctx, "skipping remote answer", "answer_id", a.ID, "error", err)
			continue
		}
		decoded = append(decoded, a)
	}

	n := 0
	err := s.store.Write(ctx, []string{models.CollectionAnswers}, func(ctx context.Context, r store.Repos) error {
		n = 0
		for i := range decoded {
			a := &decoded[i]
			local, err := r.Answers.GetByKey(ctx, a.CaseID, a.QuestionKey)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if local != nil && !local.IsSynced {
				continue
			}
			// The remote row for this question wins its id too, so later
			// saves update that row instead of adding a second one.
			if local != nil && local.ID != a.ID {
				if err := r.Answers.Delete(ctx, local.ID); err != nil {
					return fmt.Errorf("failed to rekey answer %s: %w", local.ID, err)
				}
			}
			a.IsSynced = true
			if err := r.Answers.Put(ctx, a); err != nil {
				return fmt.Errorf("failed to cache answer %s: %w", a.ID, err)
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *checklistService) Catalog() []models.Question {
	return models.Questions()
}
