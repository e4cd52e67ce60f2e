package alternator

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alternator.v1.AlternatorService"

// ActorMetadataKey is the metadata key carrying "user@host" of the caller.
const ActorMetadataKey = "x-alternator-actor"

const (
	startMethod       = "/" + ServiceName + "/Start"
	stopMethod        = "/" + ServiceName + "/Stop"
	togglePauseMethod = "/" + ServiceName + "/TogglePause"
	getStatusMethod   = "/" + ServiceName + "/GetStatus"
)

// AlternatorServiceServer is the server API for the AlternatorService.
type AlternatorServiceServer interface {
	Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Stop(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	TogglePause(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterAlternatorServiceServer registers srv on the provided registrar.
func RegisterAlternatorServiceServer(registrar grpc.ServiceRegistrar, srv AlternatorServiceServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlternatorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Start",
			Handler:    startHandler,
		},
		{
			MethodName: "Stop",
			Handler: emptyHandler(stopMethod, func(srv AlternatorServiceServer) emptyCall {
				return srv.Stop
			}),
		},
		{
			MethodName: "TogglePause",
			Handler: emptyHandler(togglePauseMethod, func(srv AlternatorServiceServer) emptyCall {
				return srv.TogglePause
			}),
		},
		{
			MethodName: "GetStatus",
			Handler: emptyHandler(getStatusMethod, func(srv AlternatorServiceServer) emptyCall {
				return srv.GetStatus
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alternator/v1/alternator.proto",
}

// emptyCall is the shape of every method that takes no arguments.
type emptyCall func(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)

// startHandler decodes a Start request and dispatches it through the interceptor chain.
func startHandler(
	srv any,
	ctx context.Context, //nolint:revive // Argument order is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(AlternatorServiceServer)
	if interceptor == nil {
		return server.Start(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: startMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		request, _ := req.(*structpb.Struct)

		return server.Start(ctx, request)
	}

	return interceptor(ctx, in, info, handler)
}

// emptyHandler builds a grpc.MethodHandler for a method that takes emptypb.Empty.
func emptyHandler(fullMethod string, pick func(AlternatorServiceServer) emptyCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(AlternatorServiceServer)
		call := pick(server)

		if interceptor == nil {
			return call(ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			request, _ := req.(*emptypb.Empty)

			return call(ctx, request)
		}

		return interceptor(ctx, in, info, handler)
	}
}

// Client is a typed stub for the AlternatorService.
type Client struct {
	// cc is the connection calls are issued on.
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{
		cc: cc,
	}
}

// Start asks the server to start a run with the optional duration overrides.
func (c *Client) Start(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, startMethod, req, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Stop asks the server to stop the current run.
func (c *Client) Stop(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, stopMethod, opts...)
}

// TogglePause flips the pause request on the server.
func (c *Client) TogglePause(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, togglePauseMethod, opts...)
}

// GetStatus fetches the current status.
func (c *Client) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, getStatusMethod, opts...)
}

// invokeEmpty issues a call whose request is emptypb.Empty.
func (c *Client) invokeEmpty(ctx context.Context, method string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
