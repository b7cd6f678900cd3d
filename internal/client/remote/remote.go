// Package remote declares the two capabilities the synchronizer needs from
// the server side: a row store and a blob store.
//
// Contract shared by every implementation:
//   - ids supplied by the client are authoritative primary keys; an insert
//     carrying an id that already exists overwrites that row;
//   - Upsert writes only the columns present in row (row-level last writer
//     wins for those columns);
//   - Delete of an absent row or object succeeds;
//   - errors are mapped to common.ErrUnavailable (retry later),
//     common.ErrRejected (the payload will never be accepted),
//     common.ErrUnauthorized or common.ErrNotFound.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Row is a remote record keyed by column name.
type Row map[string]any

type RowStore interface {
	Upsert(ctx context.Context, collection, id string, row Row) error
	Delete(ctx context.Context, collection, id string) error
	// Get returns common.ErrNotFound when the row is absent.
	Get(ctx context.Context, collection, id string) (Row, error)
	// ListBy returns rows whose column equals value.
	ListBy(ctx context.Context, collection, column string, value any) ([]Row, error)
}

type BlobStore interface {
	// Put stores size bytes of body at path.
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
	// URL returns a public or signed reference for the object at path.
	URL(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error
}

// ToRow converts a model into its remote row shape using its JSON tags.
func ToRow(v any) (Row, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	var row Row
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return row, nil
}

// FromRow decodes a remote row into dst.
func FromRow(row Row, dst any) error {
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}
	return nil
}

// DecodeRow parses a queued payload into a Row.
func DecodeRow(payload []byte) (Row, error) {
	var row Row
	if err := json.Unmarshal(payload, &row); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return row, nil
}
