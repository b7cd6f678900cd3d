package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/fieldsync/internal/blob"
	"github.com/dmitrijs2005/fieldsync/internal/client/client"
	"github.com/dmitrijs2005/fieldsync/internal/client/config"
	"github.com/dmitrijs2005/fieldsync/internal/client/connectivity"
	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/pgrows"
)

// tokenSetter is satisfied by backends that authenticate with a bearer token.
type tokenSetter interface {
	SetAccessToken(token string)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// backends is the remote side selected by config.
type backends struct {
	rows    remote.RowStore
	blobs   remote.BlobStore
	pinger  connectivity.Pinger
	tokens  tokenSetter
	closers []func() error
}

func (b *backends) close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// seams for tests
var (
	newGatewayClient = func(addr, token string) (client.Client, error) {
		return client.NewGRPCClient(addr, token)
	}
	connectPostgres = pgrows.Connect
)

// openBackends never dials: every backend connects lazily so the client
// starts offline.
func openBackends(ctx context.Context, cfg *config.Config, log logging.Logger) (*backends, error) {
	b := &backends{}

	var gw client.Client
	gateway := func() (client.Client, error) {
		if gw != nil {
			return gw, nil
		}
		c, err := newGatewayClient(cfg.ServerEndpointAddr, cfg.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to init gateway client: %w", err)
		}
		gw = c
		b.tokens = c
		b.closers = append(b.closers, c.Close)
		return c, nil
	}

	switch cfg.RowsBackend {
	case config.BackendPostgres:
		db, err := connectPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.rows = pgrows.New(db)
		b.pinger = pingFunc(db.PingContext)
	default:
		c, err := gateway()
		if err != nil {
			return nil, err
		}
		b.rows = c
		b.pinger = c
	}

	s3cfg := blob.S3Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	switch cfg.BlobBackend {
	case config.BackendS3:
		s, err := blob.NewS3Store(ctx, s3cfg)
		if err != nil {
			_ = b.close()
			return nil, err
		}
		b.blobs = s
	case config.BackendMinio:
		s, err := blob.NewMinioStore(blob.MinioConfig{S3Config: s3cfg, UseSSL: cfg.S3UseSSL})
		if err != nil {
			_ = b.close()
			return nil, err
		}
		b.blobs = s
	default:
		c, err := gateway()
		if err != nil {
			_ = b.close()
			return nil, err
		}
		b.blobs = blob.NewGatewayStore(c, &http.Client{})
	}

	log.Info(ctx, "remote backends ready", "rows", cfg.RowsBackend, "blobs", cfg.BlobBackend)
	return b, nil
}
