// Package pgrows applies remote row mutations to PostgreSQL tables.
//
// Rows arrive as column maps. Upserts go through jsonb_populate_record so
// column types come from the table definition and only the columns present
// in the row are written. Collections are restricted to a whitelist.
package pgrows

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/dbx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTables are the collections mirrored by the field client.
var DefaultTables = []string{"cases", "checklist_answers", "media"}

// NaturalKeys name the unique columns an upsert merges on instead of id.
// Answers from different devices for the same question land in one row.
var NaturalKeys = map[string][]string{
	"checklist_answers": {"case_id", "question_key"},
}

var columnRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store implements remote.RowStore over a dbx.DBTX (*sql.DB or *sql.Tx).
type Store struct {
	db     dbx.DBTX
	tables map[string]struct{}
	keys   map[string][]string
}

var _ remote.RowStore = (*Store)(nil)

// New binds a Store to db. With no tables, DefaultTables are allowed.
func New(db dbx.DBTX, tables ...string) *Store {
	if len(tables) == 0 {
		tables = DefaultTables
	}
	m := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		m[t] = struct{}{}
	}
	return &Store{db: db, tables: m, keys: NaturalKeys}
}

func (s *Store) table(collection string) (string, error) {
	if _, ok := s.tables[collection]; !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownCollection, collection)
	}
	return pgx.Identifier{collection}.Sanitize(), nil
}

func column(name string) (string, error) {
	if !columnRe.MatchString(name) {
		return "", fmt.Errorf("%w: bad column name %q", common.ErrRejected, name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

// Upsert inserts the row or overwrites the columns it carries. The id
// argument always wins over an "id" key in row. When the row carries every
// natural key column of its table the conflict target is that key, and the
// stored id is kept.
func (s *Store) Upsert(ctx context.Context, collection, id string, row remote.Row) error {
	tbl, err := s.table(collection)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: missing id", common.ErrRejected)
	}

	data := make(map[string]any, len(row)+1)
	for k, v := range row {
		data[k] = v
	}
	data["id"] = id

	names := make([]string, 0, len(data))
	for k := range data {
		names = append(names, k)
	}
	sort.Strings(names)

	cols := make([]string, 0, len(names))
	sets := make([]string, 0, len(names))
	for _, n := range names {
		c, err := column(n)
		if err != nil {
			return err
		}
		cols = append(cols, c)
		if n != "id" {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRejected, err)
	}

	target, err := s.conflictTarget(collection, data)
	if err != nil {
		return err
	}

	colList := strings.Join(cols, ", ")
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM jsonb_populate_record(NULL::%s, $1::jsonb) ON CONFLICT (%s) ",
		tbl, colList, colList, tbl, target)
	if len(sets) == 0 {
		query += "DO NOTHING"
	} else {
		query += "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	if _, err := s.db.ExecContext(ctx, query, string(payload)); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) conflictTarget(collection string, data map[string]any) (string, error) {
	keys := s.keys[collection]
	if len(keys) == 0 {
		return "id", nil
	}
	cols := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := data[k]; !ok || v == nil {
			return "id", nil
		}
		c, err := column(k)
		if err != nil {
			return "", err
		}
		cols = append(cols, c)
	}
	return strings.Join(cols, ", "), nil
}

// Delete removes a row; deleting an absent row succeeds.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tbl, err := s.table(collection)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", tbl), id); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (remote.Row, error) {
	tbl, err := s.table(collection)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT row_to_json(t) FROM %s t WHERE t.id = $1", tbl), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return decode(raw)
}

// ListBy compares the text form of column with value, so numbers and
// booleans decoded from JSON match their column types.
func (s *Store) ListBy(ctx context.Context, collection, col string, value any) ([]remote.Row, error) {
	tbl, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	c, err := column(col)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT row_to_json(t) FROM %s t WHERE t.%s::text = $1 ORDER BY t.id", tbl, c)
	rows, err := s.db.QueryContext(ctx, query, fmt.Sprint(value))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []remote.Row
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		r, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func decode(raw []byte) (remote.Row, error) {
	var r remote.Row
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return r, nil
}

// mapError classifies driver errors. Data exceptions (class 22), integrity
// violations (class 23) and undefined columns are permanent.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") || pgErr.Code == "42703" {
			return fmt.Errorf("%w: %s (%s)", common.ErrRejected, pgErr.Message, pgErr.Code)
		}
		return fmt.Errorf("db error: %w", err)
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return fmt.Errorf("db error: %w", err)
}
