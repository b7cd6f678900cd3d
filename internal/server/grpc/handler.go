package grpc

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// objectPrefix confines devices to the media area of the bucket.
const objectPrefix = "cases/"

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(rpc.PingOK), nil
}

func (s *GRPCServer) UpsertRow(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	r, err := rpc.DecodeRowRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if r.ID == "" || r.Row == nil {
		return nil, status.Error(codes.InvalidArgument, "id and row are required")
	}
	if err := s.rows.Upsert(ctx, r.Collection, r.ID, r.Row); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) DeleteRow(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	r, err := rpc.DecodeRowRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if r.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	if err := s.rows.Delete(ctx, r.Collection, r.ID); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) GetRow(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r, err := rpc.DecodeRowRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if r.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	row, err := s.rows.Get(ctx, r.Collection, r.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := structpb.NewStruct(row)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *GRPCServer) ListRows(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	r, err := rpc.DecodeRowRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if r.Column == "" {
		return nil, status.Error(codes.InvalidArgument, "column is required")
	}
	rows, err := s.rows.ListBy(ctx, r.Collection, r.Column, r.Value)
	if err != nil {
		return nil, toStatus(err)
	}
	plain := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		plain = append(plain, row)
	}
	out, err := rpc.RowsToList(plain)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *GRPCServer) PresignPut(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	o, err := rpc.DecodeObjectRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := checkObjectPath(o.Path); err != nil {
		return nil, err
	}
	u, err := s.objects.PresignPut(ctx, o.Path, o.ContentType)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(u), nil
}

func (s *GRPCServer) PresignGet(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if err := checkObjectPath(in.GetValue()); err != nil {
		return nil, err
	}
	u, err := s.objects.PresignGet(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(u), nil
}

func (s *GRPCServer) DeleteObject(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := checkObjectPath(in.GetValue()); err != nil {
		return nil, err
	}
	if err := s.objects.Delete(ctx, in.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func checkObjectPath(p string) error {
	if !strings.HasPrefix(p, objectPrefix) || path.Clean(p) != p || strings.Contains(p, "..") {
		return status.Errorf(codes.InvalidArgument, "object path %q outside %s", p, objectPrefix)
	}
	return nil
}

// toStatus maps domain errors to gRPC codes the client classifies:
// InvalidArgument is permanent, Unavailable is retried.
func toStatus(err error) error {
	switch {
	case errors.Is(err, rpc.ErrBadRequest),
		errors.Is(err, common.ErrRejected),
		errors.Is(err, common.ErrUnknownCollection),
		errors.Is(err, common.ErrInvalidValue):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, common.ErrUnauthorized):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
