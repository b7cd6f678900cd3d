// Package server wires the sync gateway: PostgreSQL rows, the media bucket
// and the gRPC API, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/blob"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/pgrows"
	"github.com/dmitrijs2005/fieldsync/internal/server/auth"
	"github.com/dmitrijs2005/fieldsync/internal/server/config"
	"github.com/dmitrijs2005/fieldsync/internal/server/migrations"

	gs "github.com/dmitrijs2005/fieldsync/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *gs.GRPCServer
}

// NewApp connects to PostgreSQL (waiting up to DatabaseWait), applies
// migrations when enabled and prepares the bucket client.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout,
		&slog.HandlerOptions{Level: logging.ParseLevel(c.LogLevel)})))

	db, err := pgrows.Open(ctx, c.DatabaseDSN, c.DatabaseWait)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if c.MigrateOnStart {
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	objects, err := blob.NewS3Store(ctx, blob.S3Config{
		Endpoint:      c.S3BaseEndpoint,
		Region:        c.S3Region,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.S3PublicBaseURL,
		URLExpiry:     c.S3URLExpiry,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bucket init error: %w", err)
	}

	s := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, pgrows.New(db), objects, c.SecretKey)

	return &App{config: c, logger: logger, db: db, server: s}, nil
}

// IssueToken signs an access token for a reviewer without starting the server.
func IssueToken(c *config.Config, subject string) (string, error) {
	return auth.GenerateToken(subject, []byte(c.SecretKey), c.TokenValidity)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a signal arrives or ctx is done.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "token_validity", app.config.TokenValidity.Round(time.Hour))

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Warn(ctx, "closing database", "error", cerr)
	}
	return err
}
