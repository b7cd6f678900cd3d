package client

import (
	"context"

	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
)

// Client is the gateway API used by the field client.
type Client interface {
	remote.RowStore
	Close() error
	Ping(ctx context.Context) error
	SetAccessToken(token string)
	PresignPut(ctx context.Context, path, contentType string) (string, error)
	PresignGet(ctx context.Context, path string) (string, error)
	DeleteObject(ctx context.Context, path string) error
}
