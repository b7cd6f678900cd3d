package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/client/connectivity"
	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/cases"
	"github.com/dmitrijs2005/fieldsync/internal/client/services"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/client/syncer"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSync struct {
	report syncer.Report
	err    error
	calls  int
}

func (f *fakeSync) Run(ctx context.Context) { <-ctx.Done() }

func (f *fakeSync) SyncNow(ctx context.Context) (syncer.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeTokens struct{ token string }

func (f *fakeTokens) SetAccessToken(t string) { f.token = t }

type testApp struct {
	*App
	out  *bytes.Buffer
	sync *fakeSync
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	checklist := services.NewChecklistService(st, nil, nil)
	media, err := services.NewMediaService(st, filepath.Join(t.TempDir(), "media"), nil, nil)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	fs := &fakeSync{}
	return &testApp{
		App: &App{
			store:     st,
			cases:     services.NewCaseService(st, nil, checklist, nil, nil),
			checklist: checklist,
			media:     media,
			queue:     services.NewQueueService(st, nil),
			sync:      fs,
			conn:      connectivity.NewMonitor(false),
			reader:    rdr(input),
			out:       out,
		},
		out:  out,
		sync: fs,
	}
}

func (a *testApp) onlyCase(t *testing.T) models.Case {
	t.Helper()
	list, err := a.cases.List(context.Background(), cases.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0]
}

func TestApp_NewCaseFlow(t *testing.T) {
	a := newTestApp(t, "cl-1\nToyota\nCorolla\nVIN123\nAB-123\nred\n2019\n\n")
	ctx := context.Background()

	require.NoError(t, a.Reviewer(ctx, []string{"rev-7"}))
	require.NoError(t, a.New(ctx, nil))

	c := a.onlyCase(t)
	assert.Equal(t, "Toyota", c.VehicleMake)
	assert.Equal(t, 2019, c.VehicleYear)
	assert.Equal(t, 0, c.Mileage)
	assert.Equal(t, "rev-7", c.ReviewerID)
	assert.Equal(t, models.SyncPendingUpload, c.SyncStatus)
	assert.Contains(t, a.out.String(), "Created case "+c.ID)

	a.out.Reset()
	require.NoError(t, a.Cases(ctx, nil))
	assert.Contains(t, a.out.String(), "2019 Toyota Corolla (AB-123)")
	assert.Contains(t, a.out.String(), "pending_upload")

	require.NoError(t, a.Status(ctx, []string{c.ID, "in_progress"}))
	require.ErrorIs(t, a.Status(ctx, []string{c.ID, "completed"}), common.ErrInvalidTransition)
	require.ErrorIs(t, a.Status(ctx, []string{c.ID}), errUsage)

	require.ErrorIs(t, a.Cases(ctx, []string{"bogus"}), common.ErrInvalidValue)
}

func TestApp_NewRejectsBadNumber(t *testing.T) {
	a := newTestApp(t, "\n\n\n\n\n\nnineteen\n")
	require.ErrorIs(t, a.New(context.Background(), nil), common.ErrInvalidValue)
}

func TestApp_AnswerShowAndMedia(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()

	c, err := a.cases.Create(ctx, models.Case{VehicleMake: "Ford"})
	require.NoError(t, err)

	require.NoError(t, a.Answer(ctx, []string{c.ID, "q_brakes", "poor", "grinding", "noise"}))
	require.ErrorIs(t, a.Answer(ctx, []string{c.ID, "q_brakes"}), errUsage)
	require.ErrorIs(t, a.Answer(ctx, []string{c.ID, "q_nope", "x"}), common.ErrUnknownQuestion)

	file := filepath.Join(t.TempDir(), "shot.jpg")
	require.NoError(t, os.WriteFile(file, []byte("\xff\xd8\xff\xe0fakejpeg"), 0o600))
	require.NoError(t, a.Photo(ctx, []string{c.ID, "q_brakes", file}))
	require.NoError(t, a.Video(ctx, []string{c.ID, "-", file}))
	require.Error(t, a.Photo(ctx, []string{c.ID, "-", filepath.Join(t.TempDir(), "missing")}))

	a.out.Reset()
	require.NoError(t, a.Show(ctx, []string{c.ID}))
	out := a.out.String()
	assert.Contains(t, out, "Brake condition")
	assert.Contains(t, out, "poor*")
	assert.Contains(t, out, "grinding noise")
	assert.Contains(t, out, "photo")
	assert.Contains(t, out, "video")

	items, err := a.media.List(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, a.RemoveMedia(ctx, []string{items[0].ID}))
	st, err := a.media.Get(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaPendingDelete, st.SyncStatus)

	a.out.Reset()
	require.NoError(t, a.RetryMedia(ctx, []string{items[1].ID}))
	assert.Contains(t, a.out.String(), "pending_upload")
}

func TestApp_QueueDeadRetry(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()

	_, err := a.cases.Create(ctx, models.Case{})
	require.NoError(t, err)

	require.NoError(t, a.Queue(ctx, nil))
	assert.Contains(t, a.out.String(), "Operations: 1 live")

	pending, err := a.queue.Pending(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, a.store.Write(ctx, []string{models.CollectionQueue}, func(ctx context.Context, r store.Repos) error {
		return r.Queue.Bury(ctx, pending[0].Seq, "rejected by remote")
	}))

	a.out.Reset()
	require.NoError(t, a.Dead(ctx, nil))
	assert.Contains(t, a.out.String(), "rejected by remote")

	require.ErrorIs(t, a.Retry(ctx, []string{"x"}), errUsage)
	require.NoError(t, a.Retry(ctx, []string{strconv.FormatInt(pending[0].Seq, 10)}))

	a.out.Reset()
	require.NoError(t, a.Dead(ctx, nil))
	assert.Contains(t, a.out.String(), "No dead-lettered operations.")
}

func TestApp_SyncReport(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()

	a.sync.err = common.ErrUnavailable
	require.NoError(t, a.Sync(ctx, nil))
	assert.Contains(t, a.out.String(), "Offline")

	a.out.Reset()
	a.sync.err = nil
	a.sync.report = syncer.Report{Applied: 3}
	require.NoError(t, a.Sync(ctx, nil))
	assert.Contains(t, a.out.String(), "Applied 3")
	assert.Equal(t, 2, a.sync.calls)
}

func TestApp_PullNeedsReviewer(t *testing.T) {
	a := newTestApp(t, "")
	require.NoError(t, a.Pull(context.Background(), nil))
	assert.Contains(t, a.out.String(), "Set a reviewer first")

	require.NoError(t, a.Reviewer(context.Background(), []string{"rev-1"}))
	// no remote configured
	require.ErrorIs(t, a.Pull(context.Background(), nil), common.ErrUnavailable)
}

func TestApp_Token(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Token(ctx, nil))
	assert.Contains(t, a.out.String(), "do not use a gateway token")

	old := getSecret
	t.Cleanup(func() { getSecret = old })
	getSecret = func(string, io.Writer) (string, error) { return "jwt", nil }

	tokens := &fakeTokens{}
	a.remote = &backends{tokens: tokens}
	require.NoError(t, a.Token(ctx, nil))
	assert.Equal(t, "jwt", tokens.token)
}

func TestApp_StatusPrompt(t *testing.T) {
	a := newTestApp(t, "")
	assert.Equal(t, "(offline)", a.status())
	a.conn.Set(true)
	assert.Equal(t, "(online)", a.status())
}
