package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/media"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/filex"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/gabriel-vasile/mimetype"
)

type MediaService interface {
	// Save writes the payload under the media directory and records a
	// pending_upload item. Media never goes through the operation queue.
	Save(ctx context.Context, caseID string, itemID *string, data []byte, kind models.MediaKind) (*models.MediaItem, error)
	// Delete soft-deletes the item; the media queue removes it remotely.
	Delete(ctx context.Context, id string) error
	// Retry moves a terminal item back to its pending state.
	Retry(ctx context.Context, id string) (models.MediaStatus, error)
	Get(ctx context.Context, id string) (*models.MediaItem, error)
	List(ctx context.Context, caseID string) ([]models.MediaItem, error)
	Stats(ctx context.Context) (map[models.MediaStatus]int, error)
}

type mediaService struct {
	store *store.Store
	dir   string
	kick  Kicker
	log   logging.Logger
}

// NewMediaService keeps payloads in dir, creating it when needed.
func NewMediaService(s *store.Store, dir string, kick Kicker, log logging.Logger) (MediaService, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	return &mediaService{store: s, dir: abs, kick: orNop(kick), log: log.With("module", "media")}, nil
}

func (s *mediaService) Save(ctx context.Context, caseID string, itemID *string, data []byte, kind models.MediaKind) (*models.MediaItem, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("media kind %q: %w", kind, common.ErrInvalidValue)
	}
	if len(data) == 0 {
		return nil, common.ErrNoPayload
	}
	if itemID != nil {
		if _, err := models.LookupQuestion(*itemID); err != nil {
			return nil, err
		}
	}
	if _, err := s.store.Read().Cases.Get(ctx, caseID); err != nil {
		return nil, err
	}

	mt := mimetype.Detect(data)
	ext := mt.Extension()
	if ext == "" {
		ext = models.DefaultExtension(kind)
	}

	t := now()
	m := &models.MediaItem{
		ID:              newID(),
		CaseID:          caseID,
		ChecklistItemID: itemID,
		Kind:            kind,
		ContentType:     mt.String(),
		Size:            int64(len(data)),
		SyncStatus:      models.MediaPendingUpload,
		CreatedAt:       t,
		UpdatedAt:       t,
	}
	m.LocalPath = filepath.Join(s.dir, m.ID+ext)

	if err := filex.WriteFileAtomic(m.LocalPath, data); err != nil {
		return nil, fmt.Errorf("failed to store media payload: %w", err)
	}

	err := s.store.Write(ctx, []string{models.CollectionMedia}, func(ctx context.Context, r store.Repos) error {
		return r.Media.Put(ctx, m)
	})
	if err != nil {
		_ = filex.RemoveIfExists(m.LocalPath)
		return nil, err
	}

	s.log.Debug(ctx, "media captured", "media_id", m.ID, "case_id", caseID, "type", m.ContentType, "size", m.Size)
	s.kick.Kick()
	return m, nil
}

func (s *mediaService) Delete(ctx context.Context, id string) error {
	err := s.store.Write(ctx, []string{models.CollectionMedia}, func(ctx context.Context, r store.Repos) error {
		return r.Media.SoftDelete(ctx, id, now())
	})
	if err != nil {
		return err
	}
	s.kick.Kick()
	return nil
}

func (s *mediaService) Retry(ctx context.Context, id string) (models.MediaStatus, error) {
	var st models.MediaStatus
	err := s.store.Write(ctx, []string{models.CollectionMedia}, func(ctx context.Context, r store.Repos) error {
		m, err := r.Media.Get(ctx, id)
		if err != nil {
			return err
		}
		// error_no_blob stays terminal until the payload is back on disk.
		if m.SyncStatus == models.MediaErrorNoBlob && !filex.Exists(m.LocalPath) {
			return common.ErrNoPayload
		}
		st, err = r.Media.Reset(ctx, id)
		return err
	})
	if err != nil {
		return "", err
	}
	s.kick.Kick()
	return st, nil
}

func (s *mediaService) Get(ctx context.Context, id string) (*models.MediaItem, error) {
	return s.store.Read().Media.Get(ctx, id)
}

func (s *mediaService) List(ctx context.Context, caseID string) ([]models.MediaItem, error) {
	return s.store.Read().Media.Query(ctx, media.Filter{CaseID: caseID})
}

func (s *mediaService) Stats(ctx context.Context) (map[models.MediaStatus]int, error) {
	return s.store.Read().Media.CountByStatus(ctx)
}
