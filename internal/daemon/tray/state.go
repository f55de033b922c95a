// Package tray implements the menu bar item and menu for the daemon.
package tray

import "github.com/isaiah-harvey/logicrpc/internal/daemon/presence"

// DaemonState provides read-only access to daemon state for the tray.
type DaemonState interface {
	Port() int
	Snapshot() presence.Snapshot
	PresenceError() error
	RequestShutdown()
}

// LoginItem toggles launching the daemon at login.
type LoginItem interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}

// statusLine is the text of the disabled first menu item.
func statusLine(snap presence.Snapshot, startErr error) string {
	switch {
	case startErr != nil:
		return "Not connected to Discord"
	case snap.Published.Present():
		return snap.Published.Text()
	case snap.Active:
		return "Idle"
	default:
		return "Stopped"
	}
}
