package models

import (
	"path"
	"path/filepath"
	"time"
)

// MediaKind is photo or video.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	return k == MediaPhoto || k == MediaVideo
}

// MediaStatus drives the media upload queue.
type MediaStatus string

const (
	MediaSynced        MediaStatus = "synced"
	MediaPendingUpload MediaStatus = "pending_upload"
	MediaPendingDelete MediaStatus = "pending_delete"
	MediaErrorUpload   MediaStatus = "error_upload"
	MediaErrorDelete   MediaStatus = "error_delete"
	MediaErrorNoBlob   MediaStatus = "error_no_blob"
)

// Terminal reports whether the upload queue has given up on the item.
func (s MediaStatus) Terminal() bool {
	switch s {
	case MediaErrorUpload, MediaErrorDelete, MediaErrorNoBlob:
		return true
	}
	return false
}

// MediaItem is one captured photo or video. The payload lives on disk at
// LocalPath until it has been uploaded.
type MediaItem struct {
	ID              string    `json:"id"`
	CaseID          string    `json:"case_id"`
	ChecklistItemID *string   `json:"checklist_item_id"`
	Kind            MediaKind `json:"kind"`
	ContentType     string    `json:"content_type"`
	Size            int64     `json:"size"`
	RemotePath      string    `json:"remote_path"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	LocalPath     string      `json:"-"`
	Deleted       bool        `json:"-"`
	SyncStatus    MediaStatus `json:"-"`
	Attempts      int         `json:"-"`
	NextAttemptAt time.Time   `json:"-"`
	LastError     string      `json:"-"`
}

// ObjectPath is the object-storage key for the payload:
// cases/<case_id>/<media_id><ext>.
func (m *MediaItem) ObjectPath() string {
	if m.RemotePath != "" {
		return m.RemotePath
	}
	ext := filepath.Ext(m.LocalPath)
	if ext == "" {
		ext = DefaultExtension(m.Kind)
	}
	return path.Join("cases", m.CaseID, m.ID+ext)
}

// DefaultExtension is used when neither the file name nor content sniffing
// yields an extension.
func DefaultExtension(k MediaKind) string {
	if k == MediaVideo {
		return ".mp4"
	}
	return ".jpg"
}
