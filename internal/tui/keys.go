package tui

import "github.com/charmbracelet/bubbles/key"

// Keys are the viewer's key bindings.
type Keys struct {
	Quit    key.Binding
	Refresh key.Binding
	Help    key.Binding
}

var keys = Keys{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}
