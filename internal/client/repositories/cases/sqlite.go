package cases

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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = `id, client_id, reviewer_id, status, vehicle_make, vehicle_model, vehicle_year,
	vin, plate, mileage, color, created_at, updated_at, sync_status`

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(s scanner) (*models.Case, error) {
	var c models.Case
	var created, updated int64
	err := s.Scan(&c.ID, &c.ClientID, &c.ReviewerID, &c.Status, &c.VehicleMake, &c.VehicleModel,
		&c.VehicleYear, &c.VIN, &c.Plate, &c.Mileage, &c.Color, &created, &updated, &c.SyncStatus)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = dbx.FromNanos(created)
	c.UpdatedAt = dbx.FromNanos(updated)
	return &c, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Case, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// Put upserts a case by id. On conflict, every column is replaced.
func (r *SQLiteRepository) Put(ctx context.Context, c *models.Case) error {
	query := `INSERT INTO cases (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			reviewer_id = excluded.reviewer_id,
			status = excluded.status,
			vehicle_make = excluded.vehicle_make,
			vehicle_model = excluded.vehicle_model,
			vehicle_year = excluded.vehicle_year,
			vin = excluded.vin,
			plate = excluded.plate,
			mileage = excluded.mileage,
			color = excluded.color,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ClientID, c.ReviewerID, c.Status, c.VehicleMake, c.VehicleModel, c.VehicleYear,
		c.VIN, c.Plate, c.Mileage, c.Color, dbx.Nanos(c.CreatedAt), dbx.Nanos(c.UpdatedAt), c.SyncStatus)
	if err != nil {
		return fmt.Errorf("failed to upsert case: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Query(ctx context.Context, f Filter) ([]models.Case, error) {
	var where []string
	var args []any
	if f.ReviewerID != "" {
		where = append(where, "reviewer_id = ?")
		args = append(args, f.ReviewerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.SyncStatus != "" {
		where = append(where, "sync_status = ?")
		args = append(args, f.SyncStatus)
	}

	query := `SELECT ` + columns + ` FROM cases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY updated_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select cases: %w", err)
	}
	defer rows.Close()

	var result []models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetSyncStatus(ctx context.Context, id string, s models.SyncStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cases SET sync_status = ? WHERE id = ?`, s, id)
	if err != nil {
		return fmt.Errorf("failed to set case sync status: %w", err)
	}
	return dbx.RequireOneRow(res, fmt.Errorf("case %s: %w", id, common.ErrNotFound))
}
