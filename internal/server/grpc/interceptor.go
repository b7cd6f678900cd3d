package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/common"
	"github.com/dmitrijs2005/fieldsync/internal/rpc"
	"github.com/dmitrijs2005/fieldsync/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// SubjectFromContext returns the token subject set by the interceptor.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok
}

// accessTokenInterceptor guards every method except Ping.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if info.FullMethod == rpc.MethodPing {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	subject, err := auth.VerifyToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(context.WithValue(ctx, subjectKey, subject), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	if sub, ok := SubjectFromContext(ctx); ok {
		args = append(args, "subject", sub)
	}
	switch code {
	case codes.OK:
		s.logger.Debug(ctx, "rpc", args...)
	case codes.Internal, codes.Unknown:
		s.logger.Error(ctx, "rpc failed", append(args, "error", err)...)
	default:
		s.logger.Warn(ctx, "rpc refused", append(args, "error", err)...)
	}
	return resp, err
}
