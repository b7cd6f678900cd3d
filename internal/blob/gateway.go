package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/netx"
)

// Presigner is the object half of the gateway client.
type Presigner interface {
	PresignPut(ctx context.Context, path, contentType string) (string, error)
	PresignGet(ctx context.Context, path string) (string, error)
	DeleteObject(ctx context.Context, path string) error
}

// GatewayStore uploads through URLs presigned by the sync gateway.
type GatewayStore struct {
	presigner Presigner
	http      *http.Client
}

var _ remote.BlobStore = (*GatewayStore)(nil)

// NewGatewayStore uses httpClient for uploads; nil means http.DefaultClient.
func NewGatewayStore(p Presigner, httpClient *http.Client) *GatewayStore {
	return &GatewayStore{presigner: p, http: httpClient}
}

func (g *GatewayStore) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	u, err := g.presigner.PresignPut(ctx, path, contentType)
	if err != nil {
		return err
	}
	if err := netx.PutPresigned(ctx, g.http, u, body, size, contentType); err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return nil
}

func (g *GatewayStore) URL(ctx context.Context, path string) (string, error) {
	return g.presigner.PresignGet(ctx, path)
}

func (g *GatewayStore) Delete(ctx context.Context, path string) error {
	err := g.presigner.DeleteObject(ctx, path)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}
