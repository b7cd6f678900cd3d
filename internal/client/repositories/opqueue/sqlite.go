package opqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = `seq, collection, op, record_id, payload, created_at, attempts, next_attempt_at, last_error, dead`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.QueueEntry, error) {
	var e models.QueueEntry
	var payload string
	var created, next int64
	if err := s.Scan(&e.Seq, &e.Collection, &e.Op, &e.RecordID, &payload, &created,
		&e.Attempts, &next, &e.LastError, &e.Dead); err != nil {
		return nil, err
	}
	e.Payload = []byte(payload)
	e.CreatedAt = dbx.FromNanos(created)
	e.NextAttemptAt = dbx.FromNanos(next)
	return &e, nil
}

func collect(rows *sql.Rows) ([]models.QueueEntry, error) {
	defer rows.Close()
	var result []models.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, collection string, op models.Op, recordID string, payload []byte, now time.Time) (int64, error) {
	if !op.Valid() {
		return 0, fmt.Errorf("op %q: %w", op, common.ErrInvalidValue)
	}
	if recordID == "" {
		return 0, fmt.Errorf("empty record id: %w", common.ErrInvalidValue)
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO op_queue (collection, op, record_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`, collection, op, recordID, string(payload), dbx.Nanos(now))
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue %s %s: %w", op, collection, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue sequence: %w", err)
	}
	return seq, nil
}

func (r *SQLiteRepository) PeekOrdered(ctx context.Context, afterSeq int64, limit int) ([]models.QueueEntry, error) {
	query := `SELECT ` + columns + ` FROM op_queue WHERE dead = 0 AND seq > ? ORDER BY seq`
	args := []any{afterSeq}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to peek queue: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) Get(ctx context.Context, seq int64) (*models.QueueEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM op_queue WHERE seq = ?`, seq))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue entry %d: %w", seq, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, seq int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM op_queue WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("failed to remove queue entry %d: %w", seq, err)
	}
	return nil
}

func (r *SQLiteRepository) PendingFor(ctx context.Context, collection, recordID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM op_queue WHERE collection = ? AND record_id = ?`,
		collection, recordID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, seq int64, msg string, next time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE op_queue
		SET attempts = attempts + 1, last_error = ?, next_attempt_at = ?
		WHERE seq = ?`, msg, dbx.Nanos(next), seq)
	if err != nil {
		return fmt.Errorf("failed to mark queue entry %d failed: %w", seq, err)
	}
	return dbx.RequireOneRow(res, fmt.Errorf("queue entry %d: %w", seq, common.ErrNotFound))
}

func (r *SQLiteRepository) Bury(ctx context.Context, seq int64, msg string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE op_queue
		SET dead = 1, attempts = attempts + 1, last_error = ?
		WHERE seq = ?`, msg, seq)
	if err != nil {
		return fmt.Errorf("failed to bury queue entry %d: %w", seq, err)
	}
	return dbx.RequireOneRow(res, fmt.Errorf("queue entry %d: %w", seq, common.ErrNotFound))
}

func (r *SQLiteRepository) DeadLetters(ctx context.Context) ([]models.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM op_queue WHERE dead = 1 ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) Requeue(ctx context.Context, seq int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE op_queue
		SET dead = 0, attempts = 0, next_attempt_at = 0, last_error = ''
		WHERE seq = ? AND dead = 1`, seq)
	if err != nil {
		return fmt.Errorf("failed to requeue entry %d: %w", seq, err)
	}
	return dbx.RequireOneRow(res, fmt.Errorf("dead entry %d: %w", seq, common.ErrNotFound))
}

func (r *SQLiteRepository) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `SELECT
			COALESCE(SUM(CASE WHEN dead = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN dead = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN dead = 0 AND next_attempt_at > ? THEN 1 ELSE 0 END), 0)
		FROM op_queue`, dbx.Nanos(now)).Scan(&s.Live, &s.Dead, &s.Deferred)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return s, nil
}
