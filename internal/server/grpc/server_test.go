package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGRPCServer_RunStopsOnContextCancel(t *testing.T) {
	s, _, _ := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestGRPCServer_RunBadAddress(t *testing.T) {
	s, _, _ := newTestServer()
	s.address = "127.0.0.1:99999"
	require.Error(t, s.Run(context.Background()))
}
