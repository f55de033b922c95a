package tui

import "github.com/isaiah-harvey/logicrpc/internal/daemon/server"

// StatusMsg carries a fresh daemon status.
type StatusMsg struct {
	Status *server.DaemonStatus
}

// ErrorMsg carries a failed status fetch.
type ErrorMsg struct {
	Err error
}

// TickMsg is a periodic tick for polling.
type TickMsg struct{}
