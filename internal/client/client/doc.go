// Package client talks to the sync gateway over gRPC.
//
// # Overview
//
// GRPCClient manages the connection, injects the device access token via a
// unary interceptor and maps gRPC status codes to the sentinel errors in
// internal/common, so callers can match them with errors.Is:
//
//   - Unauthenticated, PermissionDenied      -> common.ErrUnauthorized
//   - Unavailable, DeadlineExceeded, Aborted -> common.ErrUnavailable
//   - NotFound                               -> common.ErrNotFound
//   - InvalidArgument, FailedPrecondition    -> common.ErrRejected
//
// GRPCClient satisfies remote.RowStore directly. Its presign and delete calls
// back the gateway blob store in internal/client/blob.
//
// # Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. Every call takes a context and
// honors its cancellation and deadline.
package client
