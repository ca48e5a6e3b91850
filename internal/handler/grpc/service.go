package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the lookup service.
const ServiceName = "geolocate.v1.Geolocate"

const (
	resolveMethod = "/" + ServiceName + "/Resolve"
	checkMethod   = "/" + ServiceName + "/Check"
)

// GeolocateServer is the server API for the lookup service. Messages are
// protobuf well-known types, so no generated code is required.
type GeolocateServer interface {
	Resolve(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Check(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
}

// ServiceDesc describes the lookup service for grpc.Server.RegisterService.
var ServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GeolocateServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "Resolve", Handler: resolveHandler},
		{MethodName: "Check", Handler: checkHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "geolocate/v1/geolocate.proto",
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GeolocateServer).Resolve(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: resolveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GeolocateServer).Resolve(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func checkHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GeolocateServer).Check(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: checkMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GeolocateServer).Check(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the lookup service over cc.
type Client struct {
	cc gogrpc.ClientConnInterface
}

// NewClient returns a Client using cc.
func NewClient(cc gogrpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Resolve calls Geolocate.Resolve.
func (c *Client) Resolve(ctx context.Context, ip string, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, resolveMethod, wrapperspb.String(ip), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Check calls Geolocate.Check.
func (c *Client) Check(ctx context.Context, ip string, allowed []string, opts ...gogrpc.CallOption) (bool, error) {
	values := make([]any, len(allowed))
	for i, code := range allowed {
		values[i] = code
	}
	in, err := structpb.NewStruct(map[string]any{
		"ip":                ip,
		"allowed_countries": values,
	})
	if err != nil {
		return false, err
	}
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, checkMethod, in, out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
