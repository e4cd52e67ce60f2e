// Package alternator implements the gRPC transport for the alternator service.
//
// The AlternatorService is declared by hand on top of protobuf well-known
// types (structpb.Struct and emptypb.Empty), so no generated code is needed.
// Server adapts domain types to those messages and calls into a provided
// business-service interface; Client is the matching typed stub.
package alternator
