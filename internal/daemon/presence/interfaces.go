// Package presence reconciles the watched application's live state with the
// presence published over the IPC connection.
//
// A Loop polls a Probe on a fixed cadence, renders a Status, and pushes
// changes through a Publisher. Identical statuses are published once, the
// clear call fires only on the running to not-running edge, and every
// publisher call is made under one mutex. A Lifecycle owns the single Loop
// of the process and exposes idempotent StartIdle and Stop.
package presence

import "context"

// Probe answers best-effort, possibly slow questions about the target.
// Implementations must honor ctx cancellation.
type Probe interface {
	// IsRunning reports whether the target application is running.
	IsRunning(ctx context.Context) (bool, error)

	// ActiveDocument returns the name of the active document, or "" when
	// none is open.
	ActiveDocument(ctx context.Context) (string, error)
}

// Publisher transmits presence to the remote service. It is not safe for
// concurrent use; the Loop serializes all calls.
type Publisher interface {
	SetState(ctx context.Context, text string) error
	ClearState(ctx context.Context) error
	Close() error
}

// Connector establishes the publisher connection.
type Connector func(ctx context.Context) (Publisher, error)
