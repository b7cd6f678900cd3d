package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/cases"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
)

type CaseService interface {
	// Create stores a new case (pending_upload) and queues its insert.
	Create(ctx context.Context, c models.Case) (*models.Case, error)
	// Write applies a partial update locally (pending_update) and queues it.
	Write(ctx context.Context, id string, u models.CaseUpdate) (*models.Case, error)
	// Read serves the local copy, falling back to the remote row store on a
	// local miss. Remote failures are logged and reported as not found.
	Read(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context, f cases.Filter) ([]models.Case, error)
	// Watch emits the filtered list now and after every change to cases.
	Watch(ctx context.Context, f cases.Filter) <-chan store.Snapshot[[]models.Case]
	// CacheFromRemote merges remote rows in one transaction. Local cases
	// with unsynced changes are kept.
	CacheFromRemote(ctx context.Context, rows []remote.Row) (int, error)
	// Pull fetches the reviewer's cases and their answers from the remote.
	Pull(ctx context.Context, reviewerID string) (PullResult, error)
	// Refresh pulls for the stored reviewer id, if any.
	Refresh(ctx context.Context) error
	// SetReviewer stores the reviewer id used by Refresh.
	SetReviewer(ctx context.Context, id string) error
	Reviewer(ctx context.Context) (string, error)
}

type PullResult struct {
	Cases   int
	Answers int
}

type caseService struct {
	store     *store.Store
	rows      remote.RowStore
	checklist ChecklistService
	kick      Kicker
	log       logging.Logger
}

// NewCaseService builds the case façade. rows may be nil (no remote
// fallback); checklist may be nil (Pull skips answers).
func NewCaseService(s *store.Store, rows remote.RowStore, checklist ChecklistService, kick Kicker, log logging.Logger) CaseService {
	if log == nil {
		log = logging.Nop()
	}
	return &caseService{store: s, rows: rows, checklist: checklist, kick: orNop(kick), log: log.With("module", "cases")}
}

func (s *caseService) Create(ctx context.Context, c models.Case) (*models.Case, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Status == "" {
		c.Status = models.CaseAssigned
	}
	if !c.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", c.Status, common.ErrInvalidValue)
	}
	if c.VehicleYear < 0 || c.Mileage < 0 {
		return nil, fmt.Errorf("negative vehicle year or mileage: %w", common.ErrInvalidValue)
	}
	t := now()
	c.CreatedAt, c.UpdatedAt = t, t
	c.SyncStatus = models.SyncPendingUpload

	err := s.store.Write(ctx, []string{models.CollectionCases, models.CollectionQueue}, func(ctx context.Context, r store.Repos) error {
		if err := r.Cases.Put(ctx, &c); err != nil {
			return err
		}
		return enqueue(ctx, r, models.CollectionCases, models.OpInsert, c.ID, c, t)
	})
	if err != nil {
		return nil, err
	}
	s.kick.Kick()
	return &c, nil
}

func (s *caseService) Write(ctx context.Context, id string, u models.CaseUpdate) (*models.Case, error) {
	if u.Empty() {
		return nil, fmt.Errorf("empty update: %w", common.ErrInvalidValue)
	}

	var out *models.Case
	err := s.store.Write(ctx, []string{models.CollectionCases, models.CollectionQueue}, func(ctx context.Context, r store.Repos) error {
		c, err := r.Cases.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := u.Apply(c); err != nil {
			return err
		}
		t := now()
		c.UpdatedAt = t
		// an insert that never reached the remote stays an upload
		if c.SyncStatus != models.SyncPendingUpload {
			c.SyncStatus = models.SyncPendingUpdate
		}
		if err := r.Cases.Put(ctx, c); err != nil {
			return err
		}

		fields := u.Fields()
		fields["updated_at"] = t
		if err := enqueue(ctx, r, models.CollectionCases, models.OpUpdate, id, fields, t); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.kick.Kick()
	return out, nil
}

func (s *caseService) Read(ctx context.Context, id string) (*models.Case, error) {
	c, err := s.store.Read().Cases.Get(ctx, id)
	if err == nil || !errors.Is(err, common.ErrNotFound) || s.rows == nil {
		return c, err
	}

	row, rerr := s.rows.Get(ctx, models.CollectionCases, id)
	if rerr != nil {
		if !errors.Is(rerr, common.ErrNotFound) {
			s.log.Warn(ctx, "remote case lookup failed", "case_id", id, "error", rerr)
		}
		return nil, err
	}
	if _, cerr := s.CacheFromRemote(ctx, []remote.Row{row}); cerr != nil {
		s.log.Warn(ctx, "failed to cache remote case", "case_id", id, "error", cerr)
	}

	var rc models.Case
	if err := remote.FromRow(row, &rc); err != nil {
		return nil, err
	}
	rc.SyncStatus = models.SyncSynced
	return &rc, nil
}

func (s *caseService) List(ctx context.Context, f cases.Filter) ([]models.Case, error) {
	return s.store.Read().Cases.Query(ctx, f)
}

func (s *caseService) Watch(ctx context.Context, f cases.Filter) <-chan store.Snapshot[[]models.Case] {
	return store.Live(ctx, s.store, func(ctx context.Context, r store.Repos) ([]models.Case, error) {
		return r.Cases.Query(ctx, f)
	}, models.CollectionCases)
}

func (s *caseService) CacheFromRemote(ctx context.Context, rows []remote.Row) (int, error) {
	decoded := make([]models.Case, 0, len(rows))
	for _, row := range rows {
		var c models.Case
		if err := remote.FromRow(row, &c); err != nil {
			return 0, err
		}
		if c.ID == "" {
			return 0, fmt.Errorf("remote case without id: %w", common.ErrInvalidValue)
		}
		decoded = append(decoded, c)
	}

	n := 0
	err := s.store.Write(ctx, []string{models.CollectionCases}, func(ctx context.Context, r store.Repos) error {
		n = 0
		for i := range decoded {
			c := &decoded[i]
			local, err := r.Cases.Get(ctx, c.ID)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if local != nil && local.SyncStatus != models.SyncSynced {
				continue
			}
			c.SyncStatus = models.SyncSynced
			if err := r.Cases.Put(ctx, c); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *caseService) Pull(ctx context.Context, reviewerID string) (PullResult, error) {
	var res PullResult
	if s.rows == nil {
		return res, common.ErrUnavailable
	}

	rows, err := s.rows.ListBy(ctx, models.CollectionCases, "reviewer_id", reviewerID)
	if err != nil {
		return res, fmt.Errorf("failed to pull cases: %w", err)
	}
	if res.Cases, err = s.CacheFromRemote(ctx, rows); err != nil {
		return res, err
	}

	if s.checklist == nil {
		return res, nil
	}
	for _, row := range rows {
		id, _ := row["id"].(string)
		answers, err := s.rows.ListBy(ctx, models.CollectionAnswers, "case_id", id)
		if err != nil {
			return res, fmt.Errorf("failed to pull answers of case %s: %w", id, err)
		}
		n, err := s.checklist.CacheFromRemote(ctx, answers)
		if err != nil {
			return res, err
		}
		res.Answers += n
	}
	return res, nil
}

func (s *caseService) SetReviewer(ctx context.Context, id string) error {
	return s.store.Write(ctx, []string{models.CollectionMetadata}, func(ctx context.Context, r store.Repos) error {
		if id == "" {
			return r.Metadata.Delete(ctx, metadata.KeyReviewerID)
		}
		return r.Metadata.Set(ctx, metadata.KeyReviewerID, []byte(id))
	})
}

func (s *caseService) Reviewer(ctx context.Context) (string, error) {
	v, err := s.store.Read().Metadata.Get(ctx, metadata.KeyReviewerID)
	return string(v), err
}

func (s *caseService) Refresh(ctx context.Context) error {
	reviewer, err := s.Reviewer(ctx)
	if err != nil || reviewer == "" {
		return err
	}

	res, err := s.Pull(ctx, reviewer)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "pulled remote cases", "cases", res.Cases, "answers", res.Answers)

	return s.store.Write(ctx, []string{models.CollectionMetadata}, func(ctx context.Context, r store.Repos) error {
		return r.Metadata.SetTime(ctx, metadata.KeyLastPullAt, now())
	})
}
