package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// DaemonServiceName is the fully qualified name of the control service.
const DaemonServiceName = "logicrpc.v1.DaemonService"

// DaemonServiceServer is the server interface for DaemonService.
type DaemonServiceServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*DaemonStatus, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// DaemonStatus represents the current status of the daemon.
type DaemonStatus struct {
	Version   string                 `json:"version"`
	Host      string                 `json:"host"`
	Port      int32                  `json:"port"`
	Pid       int32                  `json:"pid"`
	StartedAt *timestamppb.Timestamp `json:"started_at"`
	Presence  *PresenceStatus        `json:"presence"`
}

// PresenceStatus describes the reconciliation loop.
type PresenceStatus struct {
	// Enabled is false when the publisher could not connect at startup.
	Enabled    bool   `json:"enabled"`
	StartError string `json:"start_error,omitempty"`

	Active          bool                   `json:"active"`
	TargetRunning   bool                   `json:"target_running"`
	Document        string                 `json:"document,omitempty"`
	Published       bool                   `json:"published"`
	Text            string                 `json:"text,omitempty"`
	LastPublishedAt *timestamppb.Timestamp `json:"last_published_at,omitempty"`
	LastError       string                 `json:"last_error,omitempty"`
	SetCalls        int32                  `json:"set_calls"`
	ClearCalls      int32                  `json:"clear_calls"`
}

// RegisterDaemonServiceServer registers srv with the gRPC server.
func RegisterDaemonServiceServer(s grpc.ServiceRegistrar, srv DaemonServiceServer) {
	s.RegisterService(&daemonServiceDesc, srv)
}

var daemonServiceDesc = grpc.ServiceDesc{
	ServiceName: DaemonServiceName,
	HandlerType: (*DaemonServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "Shutdown", Handler: shutdownHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "logicrpc/v1/daemon.proto",
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + DaemonServiceName + "/GetStatus"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DaemonServiceServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func shutdownHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DaemonServiceServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + DaemonServiceName + "/Shutdown"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DaemonServiceServer).Shutdown(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// DaemonServiceClient is the client API for DaemonService.
type DaemonServiceClient interface {
	GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*DaemonStatus, error)
	Shutdown(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type daemonServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDaemonServiceClient creates a client that speaks the JSON codec.
func NewDaemonServiceClient(cc grpc.ClientConnInterface) DaemonServiceClient {
	return &daemonServiceClient{cc: cc}
}

func (c *daemonServiceClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*DaemonStatus, error) {
	out := new(DaemonStatus)
	if err := c.cc.Invoke(ctx, "/"+DaemonServiceName+"/GetStatus", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *daemonServiceClient) Shutdown(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+DaemonServiceName+"/Shutdown", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
