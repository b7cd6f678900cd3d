package metadata

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

func TestSet_ReviewerIDLifecycle(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	v, err := r.Get(ctx, KeyReviewerID)
	require.NoError(t, err)
	assert.Nil(t, v, "absent key reads as nil without error")

	require.NoError(t, r.Set(ctx, KeyReviewerID, []byte("reviewer-1")))
	require.NoError(t, r.Set(ctx, KeyReviewerID, []byte("reviewer-2")))

	v, err = r.Get(ctx, KeyReviewerID)
	require.NoError(t, err)
	assert.Equal(t, "reviewer-2", string(v))

	require.NoError(t, r.Delete(ctx, KeyReviewerID))
	require.NoError(t, r.Delete(ctx, KeyReviewerID))

	v, err = r.Get(ctx, KeyReviewerID)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestKeysAreIndependent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyReviewerID, []byte("reviewer-1")))
	require.NoError(t, r.SetTime(ctx, KeyLastPullAt, time.Unix(1700000000, 0)))
	require.NoError(t, r.Delete(ctx, KeyLastPullAt))

	v, err := r.Get(ctx, KeyReviewerID)
	require.NoError(t, err)
	assert.Equal(t, "reviewer-1", string(v))
}

func TestTime_RoundTrip(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	zero, err := r.GetTime(ctx, KeyLastPullAt)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	ts := time.Date(2026, 5, 1, 8, 30, 0, 42, time.UTC)
	require.NoError(t, r.SetTime(ctx, KeyLastPullAt, ts))

	got, err := r.GetTime(ctx, KeyLastPullAt)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
}

func TestGetTime_Garbage(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyLastPullAt, []byte("yesterday")))
	_, err := r.GetTime(ctx, KeyLastPullAt)
	require.Error(t, err)
}

func TestErrorsAreWrapped_WhenDBClosed(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set metadata[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete metadata[k]")
}
