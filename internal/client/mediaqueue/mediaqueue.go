// Package mediaqueue drains the implicit media queue: items flagged
// pending_upload get their payload pushed to object storage, items flagged
// pending_delete get their object removed before the local row goes away.
//
// Items are independent of each other. A page of up to BatchSize items is
// processed concurrently and one failing item never blocks its siblings.
package mediaqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/backoffx"
	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/filex"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchSize = 5

var errPayloadMissing = errors.New("payload missing")

type Config struct {
	BatchSize int
	// ItemTimeout bounds each remote call; zero means no bound.
	ItemTimeout time.Duration
	// MaxAttempts turns an item terminal after that many failures; zero
	// retries forever.
	MaxAttempts     int
	Backoff         backoffx.Policy
	DiscardUploaded bool
}

// Result counts what one pass did.
type Result struct {
	Uploaded int
	Deleted  int
	Failed   int
	Terminal int
}

func (r *Result) add(o Result) {
	r.Uploaded += o.Uploaded
	r.Deleted += o.Deleted
	r.Failed += o.Failed
	r.Terminal += o.Terminal
}

type Queue struct {
	store  *store.Store
	blobs  remote.BlobStore
	cfg    Config
	log    logging.Logger
	now    func() time.Time
	online func() bool
}

func New(s *store.Store, blobs remote.BlobStore, cfg Config, log logging.Logger) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Queue{
		store:  s,
		blobs:  blobs,
		cfg:    cfg,
		log:    log.With("module", "mediaqueue"),
		now:    time.Now,
		online: func() bool { return true },
	}
}

// SetOnline installs the connectivity check consulted between pages.
func (q *Queue) SetOnline(f func() bool) {
	if f != nil {
		q.online = f
	}
}

// Drain runs an upload pass followed by a delete pass.
func (q *Queue) Drain(ctx context.Context) (Result, error) {
	var res Result
	up, err := q.UploadPass(ctx)
	res.add(up)
	if err != nil {
		return res, err
	}
	del, err := q.DeletePass(ctx)
	res.add(del)
	return res, err
}

type pageFunc func(ctx context.Context, now time.Time, afterID string, limit int) ([]models.MediaItem, error)

// walk pages through due items by id and runs fn on each page concurrently.
func (q *Queue) walk(ctx context.Context, page pageFunc, fn func(ctx context.Context, m models.MediaItem) (Result, error)) (Result, error) {
	var (
		res   Result
		mu    sync.Mutex
		after string
	)
	now := q.now()

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !q.online() {
			return res, nil
		}

		items, err := page(ctx, now, after, q.cfg.BatchSize)
		if err != nil {
			return res, err
		}
		if len(items) == 0 {
			return res, nil
		}
		after = items[len(items)-1].ID

		var g errgroup.Group
		g.SetLimit(q.cfg.BatchSize)
		for _, m := range items {
			g.Go(func() error {
				r, err := fn(ctx, m)
				mu.Lock()
				res.add(r)
				mu.Unlock()
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return res, err
		}
	}
}

func (q *Queue) UploadPass(ctx context.Context) (Result, error) {
	return q.walk(ctx, q.store.Read().Media.DueForUpload, q.upload)
}

func (q *Queue) DeletePass(ctx context.Context) (Result, error) {
	return q.walk(ctx, q.store.Read().Media.DueForDelete, q.remove)
}

func (q *Queue) itemContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.cfg.ItemTimeout > 0 {
		return context.WithTimeout(ctx, q.cfg.ItemTimeout)
	}
	return context.WithCancel(ctx)
}

// upload returns an error only when the local store fails; remote failures
// are recorded on the item.
func (q *Queue) upload(ctx context.Context, m models.MediaItem) (Result, error) {
	log := q.log.With("media_id", m.ID, "case_id", m.CaseID)

	f, size, err := openPayload(m.LocalPath)
	if errors.Is(err, errPayloadMissing) {
		log.Warn(ctx, "media payload missing, giving up", "path", m.LocalPath)
		err := q.store.Write(ctx, []string{models.CollectionMedia}, func(ctx context.Context, r store.Repos) error {
			return r.Media.SetStatus(ctx, m.ID, models.MediaPendingUpload, models.MediaErrorNoBlob, errPayloadMissing.Error())
		})
		return Result{Terminal: 1}, err
	}
	if err != nil {
		return q.fail(ctx, m, models.MediaPendingUpload, models.MediaErrorUpload, err)
	}
	defer f.Close()

	path := m.ObjectPath()
	ictx, cancel := q.itemContext(ctx)
	defer cancel()

	if err := q.blobs.Put(ictx, path, f, size, m.ContentType); err != nil {
		return q.fail(ctx, m, models.MediaPendingUpload, models.MediaErrorUpload, err)
	}
	url, err := q.blobs.URL(ictx, path)
	if err != nil {
		return q.fail(ctx, m, models.MediaPendingUpload, models.MediaErrorUpload, err)
	}
	if url == "" {
		return q.fail(ctx, m, models.MediaPendingUpload, models.MediaErrorUpload, errors.New("empty reference url"))
	}

	var flipped bool
	err = q.store.Write(ctx, []string{models.CollectionMedia, models.CollectionQueue}, func(ctx context.Context, r store.Repos) error {
		now := q.now()
		flipped, err = r.Media.MarkUploaded(ctx, m.ID, path, url, now)
		if err != nil || !flipped {
			return err
		}
		cur, err := r.Media.Get(ctx, m.ID)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(cur)
		if err != nil {
			return fmt.Errorf("failed to encode media row: %w", err)
		}
		if _, err := r.Queue.Enqueue(ctx, models.CollectionMedia, models.OpInsert, m.ID, payload, now); err != nil {
			return err
		}
		if q.cfg.DiscardUploaded {
			return r.Media.ClearLocalPath(ctx, m.ID)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if !flipped {
		log.Info(ctx, "media deleted during upload, leaving it to the delete pass")
		return Result{}, nil
	}
	if q.cfg.DiscardUploaded {
		f.Close()
		if err := filex.RemoveIfExists(m.LocalPath); err != nil {
			log.Warn(ctx, "failed to discard uploaded payload", "error", err)
		}
	}
	log.Debug(ctx, "media uploaded", "path", path, "size", size)
	return Result{Uploaded: 1}, nil
}

// remove deletes the remote object first; the local row and payload go only
// after that succeeded.
func (q *Queue) remove(ctx context.Context, m models.MediaItem) (Result, error) {
	log := q.log.With("media_id", m.ID, "case_id", m.CaseID)

	ictx, cancel := q.itemContext(ctx)
	err := q.blobs.Delete(ictx, m.ObjectPath())
	cancel()
	if err != nil {
		return q.fail(ctx, m, models.MediaPendingDelete, models.MediaErrorDelete, err)
	}

	err = q.store.Write(ctx, []string{models.CollectionMedia, models.CollectionQueue}, func(ctx context.Context, r store.Repos) error {
		if err := r.Media.Delete(ctx, m.ID); err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{"id": m.ID})
		if err != nil {
			return fmt.Errorf("failed to encode media delete: %w", err)
		}
		_, err = r.Queue.Enqueue(ctx, models.CollectionMedia, models.OpDelete, m.ID, payload, q.now())
		return err
	})
	if err != nil {
		return Result{}, err
	}

	if err := filex.RemoveIfExists(m.LocalPath); err != nil {
		log.Warn(ctx, "failed to remove media payload", "error", err)
	}
	log.Debug(ctx, "media deleted")
	return Result{Deleted: 1}, nil
}

// fail defers the item with backoff, or parks it in terminal once
// MaxAttempts is reached.
func (q *Queue) fail(ctx context.Context, m models.MediaItem, from, terminal models.MediaStatus, cause error) (Result, error) {
	attempts := m.Attempts + 1
	to := from
	next := q.cfg.Backoff.NextAttempt(q.now(), attempts)
	res := Result{Failed: 1}
	if q.cfg.MaxAttempts > 0 && attempts >= q.cfg.MaxAttempts {
		to = terminal
		next = time.Time{}
		res = Result{Terminal: 1}
	}

	q.log.Warn(ctx, "media transfer failed",
		"media_id", m.ID, "status", from, "attempts", attempts, "next_status", to, "error", cause)

	err := q.store.Write(ctx, []string{models.CollectionMedia}, func(ctx context.Context, r store.Repos) error {
		return r.Media.MarkFailed(ctx, m.ID, from, to, cause.Error(), next)
	})
	return res, err
}

func openPayload(path string) (*os.File, int64, error) {
	if path == "" {
		return nil, 0, errPayloadMissing
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, errPayloadMissing
	}
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}
