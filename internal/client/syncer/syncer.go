// Package syncer drains the operation queue and the media queue against the
// remote side.
//
// A metadata drain and a media drain each have their own guard: a trigger
// that finds a drain of its kind in progress is dropped, while the two kinds
// may run at the same time. Metadata entries replay strictly in sequence
// order and a failure stops the drain at that entry.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/backoffx"
	"github.com/dmitrijs2005/fieldsync/internal/client/connectivity"
	"github.com/dmitrijs2005/fieldsync/internal/client/mediaqueue"
	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
)

const (
	DefaultInterval         = 30 * time.Second
	DefaultQueueMaxAttempts = 5
	DefaultRefreshInterval  = 5 * time.Minute
	defaultPageSize         = 50
)

// Refresher pulls a fuller remote result set into the local store. It runs
// after a metadata drain leaves the queue empty, when that drain applied
// entries or the last pull is older than Config.RefreshInterval.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Config struct {
	Interval time.Duration
	// QueueMaxAttempts buries an entry the remote keeps rejecting.
	QueueMaxAttempts int
	Backoff          backoffx.Policy
	ItemTimeout      time.Duration
	PageSize         int
	// RefreshInterval spaces out pulls after drains that applied nothing.
	RefreshInterval time.Duration
}

// Report summarizes one SyncNow call.
type Report struct {
	Applied      int
	Failed       int
	DeadLettered int
	Refreshed    bool
	Media        mediaqueue.Result
}

type Synchronizer struct {
	store     *store.Store
	rows      remote.RowStore
	media     *mediaqueue.Queue
	conn      *connectivity.Monitor
	refresher Refresher
	cfg       Config
	log       logging.Logger
	now       func() time.Time

	metaMu  sync.Mutex
	mediaMu sync.Mutex
	kick    chan struct{}
	wg      sync.WaitGroup
}

// New wires a synchronizer. conn may be nil, meaning always online; media
// may be nil when no blob backend is configured.
func New(s *store.Store, rows remote.RowStore, media *mediaqueue.Queue, conn *connectivity.Monitor, cfg Config, log logging.Logger) *Synchronizer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.QueueMaxAttempts <= 0 {
		cfg.QueueMaxAttempts = DefaultQueueMaxAttempts
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if log == nil {
		log = logging.Nop()
	}
	sy := &Synchronizer{
		store: s,
		rows:  rows,
		media: media,
		conn:  conn,
		cfg:   cfg,
		log:   log.With("module", "syncer"),
		now:   time.Now,
		kick:  make(chan struct{}, 1),
	}
	if media != nil {
		media.SetOnline(sy.online)
	}
	return sy
}

func (s *Synchronizer) SetRefresher(r Refresher) {
	s.refresher = r
}

func (s *Synchronizer) online() bool {
	return s.conn == nil || s.conn.Online()
}

// Kick asks the running loop for a sync cycle. It never blocks.
func (s *Synchronizer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run triggers sync cycles on startup, on every offline to online
// transition, on Kick and on every tick, until ctx is done. It returns after
// in-flight drains have finished.
func (s *Synchronizer) Run(ctx context.Context) {
	var transitions <-chan bool
	if s.conn != nil {
		ch, cancel := s.conn.Subscribe()
		defer cancel()
		transitions = ch
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info(ctx, "synchronizer started", "interval", s.cfg.Interval)
	s.trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.log.Info(context.Background(), "synchronizer stopped")
			return
		case up := <-transitions:
			if up {
				s.trigger(ctx)
			}
		case <-s.kick:
			s.trigger(ctx)
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// trigger starts whichever drains are idle. Failures are logged and
// swallowed.
func (s *Synchronizer) trigger(ctx context.Context) {
	if !s.online() {
		return
	}

	if s.metaMu.TryLock() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.metaMu.Unlock()
			var r Report
			if err := s.drainMetadata(ctx, &r); err != nil {
				s.log.Error(ctx, "metadata drain failed", "error", err)
			}
			if r.Applied+r.Failed+r.DeadLettered > 0 {
				s.log.Info(ctx, "metadata drain finished",
					"applied", r.Applied, "failed", r.Failed, "dead", r.DeadLettered)
			}
		}()
	}

	if s.media != nil && s.mediaMu.TryLock() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.mediaMu.Unlock()
			res, err := s.media.Drain(ctx)
			if err != nil {
				s.log.Error(ctx, "media drain failed", "error", err)
			}
			if res != (mediaqueue.Result{}) {
				s.log.Info(ctx, "media drain finished",
					"uploaded", res.Uploaded, "deleted", res.Deleted, "failed", res.Failed, "terminal", res.Terminal)
			}
		}()
	}
}

// SyncNow runs a metadata drain and a media drain and waits for both. If a
// background drain of the same kind is running, SyncNow waits for it first.
func (s *Synchronizer) SyncNow(ctx context.Context) (Report, error) {
	var r Report
	if !s.online() {
		return r, common.ErrUnavailable
	}

	var (
		wg              sync.WaitGroup
		metaErr, medErr error
		mediaRes        mediaqueue.Result
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.metaMu.Lock()
		defer s.metaMu.Unlock()
		metaErr = s.drainMetadata(ctx, &r)
	}()

	if s.media != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.mediaMu.Lock()
			defer s.mediaMu.Unlock()
			mediaRes, medErr = s.media.Drain(ctx)
		}()
	}

	wg.Wait()
	r.Media = mediaRes
	return r, errors.Join(metaErr, medErr)
}

// drainMetadata replays live entries in ascending seq until the queue is
// empty or an entry fails. The caller holds metaMu.
func (s *Synchronizer) drainMetadata(ctx context.Context, r *Report) error {
	for {
		entries, err := s.store.Read().Queue.PeekOrdered(ctx, 0, s.cfg.PageSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			break
		}

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !s.online() {
				return nil
			}
			if !e.Ready(s.now()) {
				s.log.Debug(ctx, "queue head in backoff", "seq", e.Seq, "until", e.NextAttemptAt)
				return nil
			}

			ok, err := s.apply(ctx, e, r)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
	}

	if s.refresher != nil && s.online() && s.refreshDue(ctx, r.Applied) {
		if err := s.refresher.Refresh(ctx); err != nil {
			s.log.Warn(ctx, "refresh after drain failed", "error", err)
		} else {
			r.Refreshed = true
		}
	}
	return nil
}

func (s *Synchronizer) refreshDue(ctx context.Context, applied int) bool {
	if applied > 0 {
		return true
	}
	last, err := s.store.Read().Metadata.GetTime(ctx, metadata.KeyLastPullAt)
	if err != nil {
		s.log.Warn(ctx, "reading last pull time", "error", err)
		return true
	}
	return last.IsZero() || s.now().Sub(last) >= s.cfg.RefreshInterval
}

// apply pushes one entry. It reports false when the drain must stop; the
// error is non-nil only for local store failures.
func (s *Synchronizer) apply(ctx context.Context, e models.QueueEntry, r *Report) (bool, error) {
	log := s.log.With("seq", e.Seq, "collection", e.Collection, "op", e.Op, "record_id", e.RecordID)

	rerr := s.push(ctx, e)
	if rerr != nil {
		return false, s.failed(ctx, e, rerr, r, log)
	}

	err := s.store.Write(ctx, []string{models.CollectionQueue, e.Collection}, func(ctx context.Context, repos store.Repos) error {
		if err := repos.Queue.Remove(ctx, e.Seq); err != nil {
			return err
		}
		n, err := repos.Queue.PendingFor(ctx, e.Collection, e.RecordID)
		if err != nil || n > 0 {
			return err
		}
		switch e.Collection {
		case models.CollectionCases:
			err = repos.Cases.SetSyncStatus(ctx, e.RecordID, models.SyncSynced)
		case models.CollectionAnswers:
			err = repos.Answers.MarkSynced(ctx, e.RecordID)
		}
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, err
	}

	r.Applied++
	log.Debug(ctx, "queue entry applied")
	return true, nil
}

func (s *Synchronizer) push(ctx context.Context, e models.QueueEntry) error {
	if s.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ItemTimeout)
		defer cancel()
	}

	switch e.Op {
	case models.OpInsert, models.OpUpdate:
		row, err := remote.DecodeRow(e.Payload)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrRejected, err)
		}
		return s.rows.Upsert(ctx, e.Collection, e.RecordID, row)
	case models.OpDelete:
		return s.rows.Delete(ctx, e.Collection, e.RecordID)
	default:
		return fmt.Errorf("%w: unknown op %q", common.ErrRejected, e.Op)
	}
}

// failed records a remote failure. Entries the remote rejects are buried
// once they used up QueueMaxAttempts; anything else backs off and retries.
func (s *Synchronizer) failed(ctx context.Context, e models.QueueEntry, cause error, r *Report, log logging.Logger) error {
	attempts := e.Attempts + 1
	bury := errors.Is(cause, common.ErrRejected) && attempts >= s.cfg.QueueMaxAttempts

	var err error
	if bury {
		log.Error(ctx, "queue entry rejected, moving to dead letters", "attempts", attempts, "error", cause)
		err = s.store.Write(ctx, []string{models.CollectionQueue}, func(ctx context.Context, repos store.Repos) error {
			return repos.Queue.Bury(ctx, e.Seq, cause.Error())
		})
		r.DeadLettered++
	} else {
		next := s.cfg.Backoff.NextAttempt(s.now(), attempts)
		log.Warn(ctx, "queue entry failed, will retry", "attempts", attempts, "next_attempt_at", next, "error", cause)
		err = s.store.Write(ctx, []string{models.CollectionQueue}, func(ctx context.Context, repos store.Repos) error {
			return repos.Queue.MarkFailed(ctx, e.Seq, cause.Error(), next)
		})
		r.Failed++
	}
	return err
}
