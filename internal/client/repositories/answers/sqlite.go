package answers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

const columns = `id, case_id, question_key, category, value_type, select_index, text_value,
	number_value, bool_value, note, updated_at, is_synced`

type scanner interface {
	Scan(dest ...any) error
}

func scanAnswer(s scanner) (*models.ChecklistAnswer, error) {
	var a models.ChecklistAnswer
	var (
		sel     sql.NullInt64
		text    sql.NullString
		num     sql.NullFloat64
		boolean sql.NullBool
		updated int64
	)
	err := s.Scan(&a.ID, &a.CaseID, &a.QuestionKey, &a.Category, &a.ValueType,
		&sel, &text, &num, &boolean, &a.Note, &updated, &a.IsSynced)
	if err != nil {
		return nil, err
	}
	if sel.Valid {
		v := int(sel.Int64)
		a.SelectIndex = &v
	}
	if text.Valid {
		a.TextValue = &text.String
	}
	if num.Valid {
		a.NumberValue = &num.Float64
	}
	if boolean.Valid {
		a.BoolValue = &boolean.Bool
	}
	a.UpdatedAt = dbx.FromNanos(updated)
	return &a, nil
}

func (r *SQLiteRepository) getOne(ctx context.Context, where string, args ...any) (*models.ChecklistAnswer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM checklist_answers WHERE `+where, args...)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checklist answer: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist answer: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.ChecklistAnswer, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *SQLiteRepository) GetByKey(ctx context.Context, caseID, questionKey string) (*models.ChecklistAnswer, error) {
	return r.getOne(ctx, `case_id = ? AND question_key = ?`, caseID, questionKey)
}

// Put upserts by the natural key. The stored id wins on conflict, so a
// remote-issued id is never replaced by a fresh local one.
func (r *SQLiteRepository) Put(ctx context.Context, a *models.ChecklistAnswer) error {
	query := `INSERT INTO checklist_answers (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(case_id, question_key) DO UPDATE SET
			category = excluded.category,
			value_type = excluded.value_type,
			select_index = excluded.select_index,
			text_value = excluded.text_value,
			number_value = excluded.number_value,
			bool_value = excluded.bool_value,
			note = excluded.note,
			updated_at = excluded.updated_at,
			is_synced = excluded.is_synced`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.CaseID, a.QuestionKey, a.Category, a.ValueType,
		a.SelectIndex, a.TextValue, a.NumberValue, a.BoolValue,
		a.Note, dbx.Nanos(a.UpdatedAt), a.IsSynced)
	if err != nil {
		return fmt.Errorf("failed to upsert checklist answer: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Query(ctx context.Context, f Filter) ([]models.ChecklistAnswer, error) {
	var where []string
	var args []any
	if f.CaseID != "" {
		where = append(where, "case_id = ?")
		args = append(args, f.CaseID)
	}
	if f.Synced != nil {
		where = append(where, "is_synced = ?")
		args = append(args, *f.Synced)
	}

	query := `SELECT ` + columns + ` FROM checklist_answers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY case_id, category, question_key`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select checklist answers: %w", err)
	}
	defer rows.Close()

	var result []models.ChecklistAnswer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checklist answer: %w", err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM checklist_answers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete checklist answer: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE checklist_answers SET is_synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark checklist answer synced: %w", err)
	}
	return dbx.RequireOneRow(res, fmt.Errorf("checklist answer %s: %w", id, common.ErrNotFound))
}
