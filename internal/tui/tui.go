// Package tui implements the live presence viewer.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/isaiah-harvey/logicrpc/internal/daemon/server"
)

// StatusFunc fetches the daemon status.
type StatusFunc func(ctx context.Context) (*server.DaemonStatus, error)

// Run launches the viewer and blocks until the user quits.
func Run(fetch StatusFunc) error {
	p := tea.NewProgram(NewModel(fetch), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
