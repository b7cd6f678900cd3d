package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/fieldsync/internal/backoffx"
	"github.com/dmitrijs2005/fieldsync/internal/client/config"
	"github.com/dmitrijs2005/fieldsync/internal/client/connectivity"
	"github.com/dmitrijs2005/fieldsync/internal/client/mediaqueue"
	"github.com/dmitrijs2005/fieldsync/internal/client/services"
	"github.com/dmitrijs2005/fieldsync/internal/client/store"
	"github.com/dmitrijs2005/fieldsync/internal/client/syncer"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// syncRunner is the part of the synchronizer the CLI drives.
type syncRunner interface {
	Run(ctx context.Context)
	SyncNow(ctx context.Context) (syncer.Report, error)
}

type App struct {
	config    *config.Config
	store     *store.Store
	remote    *backends
	cases     services.CaseService
	checklist services.ChecklistService
	media     services.MediaService
	queue     services.QueueService
	sync      syncRunner
	conn      *connectivity.Monitor
	log       logging.Logger

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local store and wires the engine. Nothing here needs the
// network.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	st, err := store.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	rb, err := openBackends(ctx, c, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	policy := backoffx.Policy{Base: c.BackoffBase, Max: c.BackoffMax}
	conn := connectivity.NewMonitor(false)

	mq := mediaqueue.New(st, rb.blobs, mediaqueue.Config{
		BatchSize:       c.MediaBatchSize,
		ItemTimeout:     c.ItemTimeout,
		MaxAttempts:     c.MaxAttempts,
		Backoff:         policy,
		DiscardUploaded: c.DiscardUploadedPayload,
	}, log)

	sy := syncer.New(st, rb.rows, mq, conn, syncer.Config{
		Interval:         c.SyncInterval,
		QueueMaxAttempts: c.QueueMaxAttempts,
		Backoff:          policy,
		ItemTimeout:      c.ItemTimeout,
		RefreshInterval:  c.RefreshInterval,
	}, log)

	checklist := services.NewChecklistService(st, sy, log)
	cases := services.NewCaseService(st, rb.rows, checklist, sy, log)
	sy.SetRefresher(cases)

	media, err := services.NewMediaService(st, c.MediaDir, sy, log)
	if err != nil {
		_ = rb.close()
		_ = st.Close()
		return nil, err
	}

	if c.ReviewerID != "" {
		if err := cases.SetReviewer(ctx, c.ReviewerID); err != nil {
			_ = rb.close()
			_ = st.Close()
			return nil, err
		}
	}

	return &App{
		config:    c,
		store:     st,
		remote:    rb,
		cases:     cases,
		checklist: checklist,
		media:     media,
		queue:     services.NewQueueService(st, sy),
		sync:      sy,
		conn:      conn,
		log:       log.With("module", "cli"),
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}, nil
}

// Close releases remote connections and the local store.
func (a *App) Close() error {
	var err error
	if a.remote != nil {
		err = a.remote.close()
	}
	if a.store != nil {
		if cerr := a.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (a *App) mode() Mode {
	if a.conn != nil && a.conn.Online() {
		return ModeOnline
	}
	return ModeOffline
}

func (a *App) status() string {
	return "(" + string(a.mode()) + ")"
}

// Run starts the background loops and serves the REPL until the user exits
// or ctx is done. It returns after the loops have stopped.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if a.remote != nil && a.remote.pinger != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			connectivity.Probe(ctx, a.conn, a.remote.pinger, a.config.OnlineCheckInterval, a.config.OnlineCheckInterval, a.log)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sync.Run(ctx)
	}()

	printlnFn("fieldsync client (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)

	cancel()
	wg.Wait()
}
