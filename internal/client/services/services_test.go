package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/stretchr/testify/require"
)

type countingKicker struct{ n atomic.Int32 }

func (k *countingKicker) Kick() { k.n.Add(1) }

type fakeRows struct {
	mu   sync.Mutex
	rows map[string]map[string]remote.Row
	err  error
}

func newFakeRows() *fakeRows {
	return &fakeRows{rows: map[string]map[string]remote.Row{}}
}

func (f *fakeRows) add(collection string, row remote.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows[collection] == nil {
		f.rows[collection] = map[string]remote.Row{}
	}
	f.rows[collection][row["id"].(string)] = row
}

func (f *fakeRows) Upsert(ctx context.Context, collection, id string, row remote.Row) error {
	return f.err
}

func (f *fakeRows) Delete(ctx context.Context, collection, id string) error {
	return f.err
}

func (f *fakeRows) Get(ctx context.Context, collection, id string) (remote.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[collection][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return r, nil
}

func (f *fakeRows) ListBy(ctx context.Context, collection, column string, value any) ([]remote.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []remote.Row
	for _, r := range f.rows[collection] {
		if fmt.Sprint(r[column]) == fmt.Sprint(value) {
			out = append(out, r)
		}
	}
	return out, nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fixedClock pins now() and a sequential id generator for the test.
func fixedClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Unix(1_700_000_000, 0).UTC()
	prevNow, prevID := now, newID
	var n atomic.Int32
	now = func() time.Time { return at }
	newID = func() string { return fmt.Sprintf("id-%02d", n.Add(1)) }
	t.Cleanup(func() { now, newID = prevNow, prevID })
	return at
}
