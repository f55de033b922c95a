package cli

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/isaiah-harvey/logicrpc/internal/config"
	"github.com/isaiah-harvey/logicrpc/internal/daemon/server"
)

// rpcTimeout bounds a single control call.
const rpcTimeout = 3 * time.Second

// connectDaemon establishes a gRPC connection to the running daemon.
func connectDaemon() (*grpc.ClientConn, error) {
	info, err := config.LoadDaemonInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to load daemon info: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("daemon not running")
	}

	conn, err := grpc.NewClient(config.DaemonAddr(info), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	return conn, nil
}

// fetchStatus asks the running daemon for its status.
func fetchStatus(ctx context.Context) (*server.DaemonStatus, error) {
	conn, err := connectDaemon()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	status, err := server.NewDaemonServiceClient(conn).GetStatus(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("failed to get daemon status: %w", err)
	}
	return status, nil
}

// requestShutdown asks the running daemon to stop.
func requestShutdown(ctx context.Context) error {
	conn, err := connectDaemon()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	_, err = server.NewDaemonServiceClient(conn).Shutdown(ctx, &emptypb.Empty{})
	return err
}
