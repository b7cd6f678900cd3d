package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = `id, case_id, checklist_item_id, kind, content_type, size, local_path, remote_path,
	url, deleted, sync_status, attempts, next_attempt_at, last_error, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.MediaItem, error) {
	var m models.MediaItem
	var item sql.NullString
	var next, created, updated int64
	err := s.Scan(&m.ID, &m.CaseID, &item, &m.Kind, &m.ContentType, &m.Size, &m.LocalPath, &m.RemotePath,
		&m.URL, &m.Deleted, &m.SyncStatus, &m.Attempts, &next, &m.LastError, &created, &updated)
	if err != nil {
		return nil, err
	}
	if item.Valid {
		m.ChecklistItemID = &item.String
	}
	m.NextAttemptAt = dbx.FromNanos(next)
	m.CreatedAt = dbx.FromNanos(created)
	m.UpdatedAt = dbx.FromNanos(updated)
	return &m, nil
}

func collect(rows *sql.Rows) ([]models.MediaItem, error) {
	defer rows.Close()
	var result []models.MediaItem
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func notFound(id string) error {
	return fmt.Errorf("media %s: %w", id, common.ErrNotFound)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.MediaItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM media WHERE id = ?`, id)
	m, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, m *models.MediaItem) error {
	query := `INSERT INTO media (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			case_id = excluded.case_id,
			checklist_item_id = excluded.checklist_item_id,
			kind = excluded.kind,
			content_type = excluded.content_type,
			size = excluded.size,
			local_path = excluded.local_path,
			remote_path = excluded.remote_path,
			url = excluded.url,
			deleted = excluded.deleted,
			sync_status = excluded.sync_status,
			attempts = excluded.attempts,
			next_attempt_at = excluded.next_attempt_at,
			last_error = excluded.last_error,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.CaseID, m.ChecklistItemID, m.Kind, m.ContentType, m.Size, m.LocalPath, m.RemotePath,
		m.URL, m.Deleted, m.SyncStatus, m.Attempts, dbx.Nanos(m.NextAttemptAt), m.LastError,
		dbx.Nanos(m.CreatedAt), dbx.Nanos(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert media: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Query(ctx context.Context, f Filter) ([]models.MediaItem, error) {
	var where []string
	var args []any
	if f.CaseID != "" {
		where = append(where, "case_id = ?")
		args = append(args, f.CaseID)
	}
	if f.ChecklistItemID != "" {
		where = append(where, "checklist_item_id = ?")
		args = append(args, f.ChecklistItemID)
	}
	if f.Status != "" {
		where = append(where, "sync_status = ?")
		args = append(args, f.Status)
	}
	if !f.IncludeDeleted {
		where = append(where, "deleted = 0")
	}

	query := `SELECT ` + columns + ` FROM media`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select media: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) due(ctx context.Context, status models.MediaStatus, now time.Time, afterID string, limit int) ([]models.MediaItem, error) {
	if limit <= 0 {
		limit = 1
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM media
		WHERE sync_status = ? AND next_attempt_at <= ? AND id > ?
		ORDER BY id LIMIT ?`, status, dbx.Nanos(now), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s media: %w", status, err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) DueForUpload(ctx context.Context, now time.Time, afterID string, limit int) ([]models.MediaItem, error) {
	return r.due(ctx, models.MediaPendingUpload, now, afterID, limit)
}

func (r *SQLiteRepository) DueForDelete(ctx context.Context, now time.Time, afterID string, limit int) ([]models.MediaItem, error) {
	return r.due(ctx, models.MediaPendingDelete, now, afterID, limit)
}

func (r *SQLiteRepository) MarkUploaded(ctx context.Context, id, remotePath, url string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE media SET
			remote_path = ?,
			url = ?,
			updated_at = ?,
			attempts = CASE WHEN sync_status = ? THEN 0 ELSE attempts END,
			next_attempt_at = CASE WHEN sync_status = ? THEN 0 ELSE next_attempt_at END,
			last_error = CASE WHEN sync_status = ? THEN '' ELSE last_error END,
			sync_status = CASE WHEN sync_status = ? THEN ? ELSE sync_status END
		WHERE id = ?`,
		remotePath, url, dbx.Nanos(now),
		models.MediaPendingUpload, models.MediaPendingUpload, models.MediaPendingUpload,
		models.MediaPendingUpload, models.MediaSynced, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark media uploaded: %w", err)
	}
	if err := dbx.RequireOneRow(res, notFound(id)); err != nil {
		return false, err
	}

	var status models.MediaStatus
	if err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM media WHERE id = ?`, id).Scan(&status); err != nil {
		return false, fmt.Errorf("failed to read media status: %w", err)
	}
	return status == models.MediaSynced, nil
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string, from, to models.MediaStatus, msg string, next time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE media SET
			attempts = attempts + 1,
			last_error = ?,
			next_attempt_at = ?,
			sync_status = ?
		WHERE id = ? AND sync_status = ?`,
		msg, dbx.Nanos(next), to, id, from)
	if err != nil {
		return fmt.Errorf("failed to record media failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, id string, from, to models.MediaStatus, msg string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE media SET sync_status = ?, last_error = ?
		WHERE id = ? AND sync_status = ?`, to, msg, id, from)
	if err != nil {
		return fmt.Errorf("failed to set media status: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE media SET
			deleted = 1,
			sync_status = ?,
			attempts = 0,
			next_attempt_at = 0,
			last_error = '',
			updated_at = ?
		WHERE id = ?`, models.MediaPendingDelete, dbx.Nanos(now), id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete media: %w", err)
	}
	return dbx.RequireOneRow(res, notFound(id))
}

func (r *SQLiteRepository) ClearLocalPath(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE media SET local_path = '' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear media local path: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Reset(ctx context.Context, id string) (models.MediaStatus, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}

	var to models.MediaStatus
	switch m.SyncStatus {
	case models.MediaErrorUpload, models.MediaErrorNoBlob:
		to = models.MediaPendingUpload
	case models.MediaErrorDelete:
		to = models.MediaPendingDelete
	default:
		return m.SyncStatus, nil
	}

	_, err = r.db.ExecContext(ctx, `UPDATE media SET sync_status = ?, attempts = 0, next_attempt_at = 0, last_error = ''
		WHERE id = ?`, to, id)
	if err != nil {
		return "", fmt.Errorf("failed to reset media: %w", err)
	}
	return to, nil
}

func (r *SQLiteRepository) CountByStatus(ctx context.Context) (map[models.MediaStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT sync_status, COUNT(*) FROM media GROUP BY sync_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count media: %w", err)
	}
	defer rows.Close()

	out := map[models.MediaStatus]int{}
	for rows.Next() {
		var s models.MediaStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
