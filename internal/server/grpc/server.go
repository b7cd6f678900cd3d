// Package grpc serves the SyncGateway API: row mutations applied to
// PostgreSQL and presigned access to the media bucket.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/dmitrijs2005/fieldsync/internal/rpc"
	"google.golang.org/grpc"
)

// Objects brokers bucket access for devices.
type Objects interface {
	PresignPut(ctx context.Context, path, contentType string) (string, error)
	PresignGet(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error
}

type GRPCServer struct {
	address   string
	rows      remote.RowStore
	objects   Objects
	logger    logging.Logger
	jwtSecret []byte
}

var _ rpc.GatewayServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, rows remote.RowStore, objects Objects, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		rows:      rows,
		objects:   objects,
		jwtSecret: []byte(secretKey),
	}
}

// Run serves until ctx is done, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	rpc.RegisterGatewayServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
