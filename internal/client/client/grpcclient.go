package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/fieldsync/internal/client/remote"
	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.GatewayClient

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if t := s.token(); t != "" {
		ctx = withAccessToken(ctx, t)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient creates a lazily connecting client for endpointURL.
func NewGRPCClient(endpointURL, accessToken string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewGatewayClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.GetValue() != rpc.PingOK {
		return common.ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Upsert(ctx context.Context, collection, id string, row remote.Row) error {
	req, err := rpc.RowRequest{Collection: collection, ID: id, Row: map[string]any(row)}.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRejected, err)
	}
	if _, err := s.client.UpsertRow(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Delete(ctx context.Context, collection, id string) error {
	req, err := rpc.RowRequest{Collection: collection, ID: id}.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrRejected, err)
	}
	if _, err := s.client.DeleteRow(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Get(ctx context.Context, collection, id string) (remote.Row, error) {
	req, err := rpc.RowRequest{Collection: collection, ID: id}.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRejected, err)
	}
	resp, err := s.client.GetRow(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return remote.Row(resp.AsMap()), nil
}

func (s *GRPCClient) ListBy(ctx context.Context, collection, column string, value any) ([]remote.Row, error) {
	req, err := rpc.RowRequest{Collection: collection, Column: column, Value: value}.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRejected, err)
	}
	resp, err := s.client.ListRows(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	rows, err := rpc.RowsFromList(resp)
	if err != nil {
		return nil, fmt.Errorf("rpc error: %w", err)
	}
	out := make([]remote.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, remote.Row(r))
	}
	return out, nil
}

func (s *GRPCClient) PresignPut(ctx context.Context, path, contentType string) (string, error) {
	req, err := rpc.ObjectRequest{Path: path, ContentType: contentType}.Encode()
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrRejected, err)
	}
	resp, err := s.client.PresignPut(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) PresignGet(ctx context.Context, path string) (string, error) {
	resp, err := s.client.PresignGet(ctx, wrapperspb.String(path))
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) DeleteObject(ctx context.Context, path string) error {
	if _, err := s.client.DeleteObject(ctx, wrapperspb.String(path)); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Canceled:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, st.Message())
	case codes.InvalidArgument, codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", common.ErrRejected, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
