package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueService_DeadLetterRoundTrip(t *testing.T) {
	fixedClock(t)
	s := openStore(t)
	k := &countingKicker{}
	cs := NewCaseService(s, nil, nil, nil, nil)
	qs := NewQueueService(s, k)
	ctx := context.Background()

	_, err := cs.Create(ctx, models.Case{})
	require.NoError(t, err)
	_, err = cs.Create(ctx, models.Case{})
	require.NoError(t, err)

	pending, err := qs.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, s.Write(ctx, []string{models.CollectionQueue}, func(ctx context.Context, r store.Repos) error {
		return r.Queue.Bury(ctx, pending[0].Seq, "rejected")
	}))

	stats, err := qs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Live)
	assert.Equal(t, 1, stats.Dead)

	dead, err := qs.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "rejected", dead[0].LastError)

	require.NoError(t, qs.Requeue(ctx, dead[0].Seq))
	assert.EqualValues(t, 1, k.n.Load())

	pending, err = qs.Pending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.ErrorIs(t, qs.Requeue(ctx, dead[0].Seq), common.ErrNotFound)
}
