package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/isaiah-harvey/logicrpc/internal/daemon/server"
)

// Model is the root Bubbletea model for the viewer.
type Model struct {
	fetch StatusFunc

	status     *server.DaemonStatus
	connected  bool
	err        error
	lastUpdate time.Time
	now        func() time.Time

	showHelp bool
	width    int
	height   int

	spinner spinner.Model
}

// NewModel creates the initial viewer model.
func NewModel(fetch StatusFunc) Model {
	return Model{
		fetch: fetch,
		now:   time.Now,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(runningStyle),
		),
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchStatusCmd(m.fetch),
		tickCmd(),
		m.spinner.Tick,
	)
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, fetchStatusCmd(m.fetch)
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
		return m, nil

	case TickMsg:
		return m, tea.Batch(fetchStatusCmd(m.fetch), tickCmd())

	case StatusMsg:
		m.status = msg.Status
		m.connected = true
		m.err = nil
		m.lastUpdate = m.now()
		return m, nil

	case ErrorMsg:
		m.connected = false
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the viewer.
func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 60
	}
	return renderView(m, width)
}
