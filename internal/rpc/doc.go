// Package rpc describes the SyncGateway gRPC service shared by the field
// client and the gateway server.
//
// Messages are protobuf well-known types, so no generated code is needed:
// row payloads travel as google.protobuf.Struct, paths and URLs as
// google.protobuf.StringValue. Request envelopes are built and parsed with
// RowRequest and ObjectRequest.
package rpc
