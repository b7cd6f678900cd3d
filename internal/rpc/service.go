package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "fieldsync.sync.v1.SyncGateway"

const (
	MethodPing         = "/" + ServiceName + "/Ping"
	MethodUpsertRow    = "/" + ServiceName + "/UpsertRow"
	MethodDeleteRow    = "/" + ServiceName + "/DeleteRow"
	MethodGetRow       = "/" + ServiceName + "/GetRow"
	MethodListRows     = "/" + ServiceName + "/ListRows"
	MethodPresignPut   = "/" + ServiceName + "/PresignPut"
	MethodPresignGet   = "/" + ServiceName + "/PresignGet"
	MethodDeleteObject = "/" + ServiceName + "/DeleteObject"
)

// PingOK is the status returned by a healthy gateway.
const PingOK = "OK"

// GatewayServer is the server API for the SyncGateway service.
type GatewayServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	UpsertRow(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	DeleteRow(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	GetRow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRows(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	PresignPut(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	PresignGet(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	DeleteObject(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

func unary[Req, Resp any](fullMethod string, newReq func() Req, call func(GatewayServer, context.Context, Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GatewayServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GatewayServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newEmpty() *emptypb.Empty           { return new(emptypb.Empty) }
func newStruct() *structpb.Struct        { return new(structpb.Struct) }
func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// ServiceDesc is the grpc.ServiceDesc for the SyncGateway service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(MethodPing, newEmpty, GatewayServer.Ping)},
		{MethodName: "UpsertRow", Handler: unary(MethodUpsertRow, newStruct, GatewayServer.UpsertRow)},
		{MethodName: "DeleteRow", Handler: unary(MethodDeleteRow, newStruct, GatewayServer.DeleteRow)},
		{MethodName: "GetRow", Handler: unary(MethodGetRow, newStruct, GatewayServer.GetRow)},
		{MethodName: "ListRows", Handler: unary(MethodListRows, newStruct, GatewayServer.ListRows)},
		{MethodName: "PresignPut", Handler: unary(MethodPresignPut, newStruct, GatewayServer.PresignPut)},
		{MethodName: "PresignGet", Handler: unary(MethodPresignGet, newString, GatewayServer.PresignGet)},
		{MethodName: "DeleteObject", Handler: unary(MethodDeleteObject, newString, GatewayServer.DeleteObject)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fieldsync/sync/v1/gateway.proto",
}

func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// GatewayClient is the client API for the SyncGateway service.
type GatewayClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	UpsertRow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	DeleteRow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetRow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListRows(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
	PresignPut(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	PresignGet(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	DeleteObject(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type gatewayClient struct {
	cc grpc.ClientConnInterface
}

func NewGatewayClient(cc grpc.ClientConnInterface) GatewayClient {
	return &gatewayClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, out *Resp, opts []grpc.CallOption) (*Resp, error) {
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gatewayClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke(ctx, c.cc, MethodPing, in, new(wrapperspb.StringValue), opts)
}

func (c *gatewayClient) UpsertRow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke(ctx, c.cc, MethodUpsertRow, in, new(emptypb.Empty), opts)
}

func (c *gatewayClient) DeleteRow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke(ctx, c.cc, MethodDeleteRow, in, new(emptypb.Empty), opts)
}

func (c *gatewayClient) GetRow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, MethodGetRow, in, new(structpb.Struct), opts)
}

func (c *gatewayClient) ListRows(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke(ctx, c.cc, MethodListRows, in, new(structpb.ListValue), opts)
}

func (c *gatewayClient) PresignPut(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke(ctx, c.cc, MethodPresignPut, in, new(wrapperspb.StringValue), opts)
}

func (c *gatewayClient) PresignGet(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke(ctx, c.cc, MethodPresignGet, in, new(wrapperspb.StringValue), opts)
}

func (c *gatewayClient) DeleteObject(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke(ctx, c.cc, MethodDeleteObject, in, new(emptypb.Empty), opts)
}
