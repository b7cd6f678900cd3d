package cli

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/fieldsync/internal/blob"
	"github.com/dmitrijs2005/fieldsync/internal/client/client"
	"github.com/dmitrijs2005/fieldsync/internal/client/config"
	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/pgrows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	remote.RowStore
	addr, token string
	closed      bool
}

func (f *fakeGateway) Close() error                   { f.closed = true; return nil }
func (f *fakeGateway) Ping(ctx context.Context) error { return nil }
func (f *fakeGateway) SetAccessToken(t string)        { f.token = t }
func (f *fakeGateway) PresignPut(ctx context.Context, path, contentType string) (string, error) {
	return "", nil
}
func (f *fakeGateway) PresignGet(ctx context.Context, path string) (string, error) { return "", nil }
func (f *fakeGateway) DeleteObject(ctx context.Context, path string) error         { return nil }

func stubGateway(t *testing.T) *[]*fakeGateway {
	t.Helper()
	var made []*fakeGateway
	old := newGatewayClient
	newGatewayClient = func(addr, token string) (client.Client, error) {
		g := &fakeGateway{addr: addr, token: token}
		made = append(made, g)
		return g, nil
	}
	t.Cleanup(func() { newGatewayClient = old })
	return &made
}

func testConfig(mut func(c *config.Config)) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.S3Bucket = "inspections"
	c.S3AccessKey = "key"
	c.S3SecretKey = "secret"
	if mut != nil {
		mut(c)
	}
	return c
}

func TestOpenBackends_GatewayShared(t *testing.T) {
	made := stubGateway(t)
	cfg := testConfig(func(c *config.Config) { c.AccessToken = "t0" })

	b, err := openBackends(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)

	require.Len(t, *made, 1, "rows and blobs share one gateway client")
	g := (*made)[0]
	assert.Equal(t, "127.0.0.1:50051", g.addr)
	assert.Equal(t, "t0", g.token)
	assert.Same(t, g, b.rows)
	assert.Same(t, g, b.pinger)
	assert.IsType(t, &blob.GatewayStore{}, b.blobs)

	b.tokens.SetAccessToken("t1")
	assert.Equal(t, "t1", g.token)

	require.NoError(t, b.close())
	assert.True(t, g.closed)
}

func TestOpenBackends_Direct(t *testing.T) {
	made := stubGateway(t)

	tests := []struct {
		name     string
		blobs    string
		wantBlob any
	}{
		{"s3", config.BackendS3, &blob.S3Store{}},
		{"minio", config.BackendMinio, &blob.MinioStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(func(c *config.Config) {
				c.RowsBackend = config.BackendPostgres
				c.PostgresDSN = "postgres://u:p@127.0.0.1:1/db"
				c.BlobBackend = tt.blobs
				c.S3Endpoint = "127.0.0.1:9000"
			})
			if tt.blobs == config.BackendS3 {
				cfg.S3Endpoint = "http://127.0.0.1:9000"
			}

			b, err := openBackends(context.Background(), cfg, logging.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.close() })

			assert.IsType(t, &pgrows.Store{}, b.rows)
			assert.IsType(t, tt.wantBlob, b.blobs)
			assert.Nil(t, b.tokens)
			assert.NotNil(t, b.pinger)
		})
	}
	assert.Empty(t, *made)
}

func TestOpenBackends_PostgresRowsGatewayBlobs(t *testing.T) {
	made := stubGateway(t)
	cfg := testConfig(func(c *config.Config) {
		c.RowsBackend = config.BackendPostgres
		c.PostgresDSN = "postgres://u:p@127.0.0.1:1/db"
	})

	b, err := openBackends(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.close() })

	assert.IsType(t, &pgrows.Store{}, b.rows)
	assert.IsType(t, &blob.GatewayStore{}, b.blobs)
	require.Len(t, *made, 1)
	assert.NotNil(t, b.tokens)
}
