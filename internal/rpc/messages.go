package rpc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

var ErrBadRequest = errors.New("malformed request")

// RowRequest addresses a row (UpsertRow, DeleteRow, GetRow) or a set of rows
// (ListRows: Column and Value).
type RowRequest struct {
	Collection string
	ID         string
	Row        map[string]any
	Column     string
	Value      any
}

func (r RowRequest) Encode() (*structpb.Struct, error) {
	m := map[string]any{"collection": r.Collection}
	if r.ID != "" {
		m["id"] = r.ID
	}
	if r.Row != nil {
		m["row"] = r.Row
	}
	if r.Column != "" {
		m["column"] = r.Column
		m["value"] = r.Value
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row request: %w", err)
	}
	return s, nil
}

// DecodeRowRequest parses a request envelope. Collection is always required.
func DecodeRowRequest(s *structpb.Struct) (RowRequest, error) {
	if s == nil {
		return RowRequest{}, ErrBadRequest
	}
	m := s.AsMap()

	var r RowRequest
	r.Collection, _ = m["collection"].(string)
	r.ID, _ = m["id"].(string)
	r.Column, _ = m["column"].(string)
	r.Value = m["value"]
	if row, ok := m["row"]; ok {
		r.Row, ok = row.(map[string]any)
		if !ok {
			return RowRequest{}, fmt.Errorf("row is not an object: %w", ErrBadRequest)
		}
	}
	if r.Collection == "" {
		return RowRequest{}, fmt.Errorf("missing collection: %w", ErrBadRequest)
	}
	return r, nil
}

// ObjectRequest addresses an object for PresignPut.
type ObjectRequest struct {
	Path        string
	ContentType string
}

func (o ObjectRequest) Encode() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"path": o.Path, "content_type": o.ContentType})
}

func DecodeObjectRequest(s *structpb.Struct) (ObjectRequest, error) {
	if s == nil {
		return ObjectRequest{}, ErrBadRequest
	}
	m := s.AsMap()
	var o ObjectRequest
	o.Path, _ = m["path"].(string)
	o.ContentType, _ = m["content_type"].(string)
	if o.Path == "" {
		return ObjectRequest{}, fmt.Errorf("missing path: %w", ErrBadRequest)
	}
	return o, nil
}

// RowsFromList unpacks a ListRows response.
func RowsFromList(l *structpb.ListValue) ([]map[string]any, error) {
	if l == nil {
		return nil, nil
	}
	out := make([]map[string]any, 0, len(l.GetValues()))
	for _, v := range l.AsSlice() {
		row, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("list element is not an object: %w", ErrBadRequest)
		}
		out = append(out, row)
	}
	return out, nil
}

// RowsToList packs rows for a ListRows response.
func RowsToList(rows []map[string]any) (*structpb.ListValue, error) {
	vals := make([]any, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, r)
	}
	return structpb.NewList(vals)
}
