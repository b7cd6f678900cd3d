package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newCase(id string) *models.Case {
	now := time.Now().UTC()
	return &models.Case{ID: id, Status: models.CaseAssigned, CreatedAt: now, UpdatedAt: now, SyncStatus: models.SyncPendingUpload}
}

func TestOpen_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "local.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, []string{models.CollectionCases}, func(ctx context.Context, r Repos) error {
		return r.Cases.Put(ctx, newCase("c1"))
	}))
	require.NoError(t, s.Close())

	s2 := openStore(t, path)
	got, err := s2.Read().Cases.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
}

func TestWrite_AtomicAcrossCollections(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "local.db"))
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Write(ctx, []string{models.CollectionCases, models.CollectionQueue}, func(ctx context.Context, r Repos) error {
		if err := r.Cases.Put(ctx, newCase("c1")); err != nil {
			return err
		}
		if _, err := r.Queue.Enqueue(ctx, models.CollectionCases, models.OpInsert, "c1", nil, time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Read().Cases.Get(ctx, "c1")
	require.ErrorIs(t, err, common.ErrNotFound)
	q, err := s.Read().Queue.PeekOrdered(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, q)
}

func TestWrite_PublishesOnlyOnCommit(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "local.db"))
	ctx := context.Background()

	ch, cancel := s.Hub().Subscribe(models.CollectionCases)
	defer cancel()

	_ = s.Write(ctx, []string{models.CollectionCases}, func(ctx context.Context, r Repos) error {
		return errors.New("rollback")
	})
	select {
	case <-ch:
		t.Fatal("rolled back write must not notify")
	default:
	}

	require.NoError(t, s.Write(ctx, []string{models.CollectionCases}, func(ctx context.Context, r Repos) error {
		return r.Cases.Put(ctx, newCase("c1"))
	}))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected notification after commit")
	}
}

func TestLive_ReemitsAfterWrites(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "local.db"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps := Live(ctx, s, func(ctx context.Context, r Repos) (int, error) {
		cs, err := r.Cases.Query(ctx, casesFilterAll)
		return len(cs), err
	}, models.CollectionCases)

	next := func() Snapshot[int] {
		select {
		case v := <-snaps:
			return v
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
		return Snapshot[int]{}
	}

	first := next()
	require.NoError(t, first.Err)
	assert.Equal(t, 0, first.Value)

	require.NoError(t, s.Write(ctx, []string{models.CollectionCases}, func(ctx context.Context, r Repos) error {
		return r.Cases.Put(ctx, newCase("c1"))
	}))
	assert.Equal(t, 1, next().Value)

	// A write to another collection does not re-run the query.
	require.NoError(t, s.Write(ctx, []string{models.CollectionMedia}, func(ctx context.Context, r Repos) error {
		return nil
	}))
	require.NoError(t, s.Write(ctx, []string{models.CollectionCases}, func(ctx context.Context, r Repos) error {
		return r.Cases.Put(ctx, newCase("c2"))
	}))
	assert.Equal(t, 2, next().Value)

	cancel()
	for range snaps {
	}
}
