// Package server implements the gRPC control server for the daemon.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/isaiah-harvey/logicrpc/internal/buildinfo"
	"github.com/isaiah-harvey/logicrpc/internal/daemon/presence"
)

// Host is the loopback address the control server binds to.
const Host = "127.0.0.1"

// Server is the daemon's gRPC server.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	port       int
	startedAt  time.Time
	presence   *presence.Lifecycle

	mu         sync.RWMutex
	startErr   error
	onShutdown func()
}

// New creates a new server listening on the specified port.
// Pass port 0 for dynamic allocation.
func New(port int, lc *presence.Lifecycle) (*Server, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", net.JoinHostPort(Host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	// Get actual port if dynamically allocated
	actualPort := listener.Addr().(*net.TCPAddr).Port

	srv := &Server{
		grpcServer: grpc.NewServer(),
		listener:   listener,
		port:       actualPort,
		startedAt:  time.Now(),
		presence:   lc,
		onShutdown: signalSelf,
	}
	RegisterDaemonServiceServer(srv.grpcServer, &daemonService{server: srv})

	return srv, nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

// SetPresenceError records why presence reporting could not start.
func (s *Server) SetPresenceError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startErr = err
}

// PresenceError returns the error recorded by SetPresenceError.
func (s *Server) PresenceError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startErr
}

// OnShutdown replaces what a Shutdown request does. By default the process
// sends itself SIGINT.
func (s *Server) OnShutdown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onShutdown = fn
}

// RequestShutdown triggers a graceful shutdown of the daemon.
func (s *Server) RequestShutdown() {
	s.mu.RLock()
	fn := s.onShutdown
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Snapshot returns the presence loop state.
func (s *Server) Snapshot() presence.Snapshot {
	if s.presence == nil {
		return presence.Snapshot{}
	}
	return s.presence.Snapshot()
}

func (s *Server) status() *DaemonStatus {
	return &DaemonStatus{
		Version:   buildinfo.Version,
		Host:      Host,
		Port:      int32(s.port),
		Pid:       int32(os.Getpid()),
		StartedAt: timestamppb.New(s.startedAt),
		Presence:  s.presenceStatus(),
	}
}

func (s *Server) presenceStatus() *PresenceStatus {
	out := &PresenceStatus{}
	if err := s.PresenceError(); err != nil {
		out.StartError = err.Error()
	}
	if s.presence == nil || !s.presence.Started() {
		return out
	}

	snap := s.presence.Snapshot()
	out.Enabled = true
	out.Active = snap.Active
	out.TargetRunning = snap.TargetRunning
	out.Document = snap.Document
	out.Published = snap.Published.Present()
	out.Text = snap.Published.Text()
	out.LastError = snap.LastError
	out.SetCalls = int32(snap.SetCalls)
	out.ClearCalls = int32(snap.ClearCalls)
	if !snap.LastPublishedAt.IsZero() {
		out.LastPublishedAt = timestamppb.New(snap.LastPublishedAt)
	}
	return out
}

type daemonService struct {
	server *Server
}

func (d *daemonService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*DaemonStatus, error) {
	return d.server.status(), nil
}

func (d *daemonService) Shutdown(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	// Reply before tearing down the server that carries the reply.
	go func() {
		time.Sleep(100 * time.Millisecond)
		d.server.RequestShutdown()
	}()
	return &emptypb.Empty{}, nil
}

// signalSelf sends SIGINT to the current process to trigger a graceful
// shutdown.
func signalSelf() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(syscall.SIGINT)
}
