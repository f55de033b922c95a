package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	pollInterval = time.Second
	fetchTimeout = 3 * time.Second
)

func fetchStatusCmd(fetch StatusFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		status, err := fetch(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return StatusMsg{Status: status}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}
