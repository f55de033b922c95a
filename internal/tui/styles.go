package tui

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorPurple = lipgloss.AdaptiveColor{Light: "92", Dark: "141"}
)

// Layout styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.AdaptiveColor{Light: "235", Dark: "236"})

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple).
			Padding(0, 2)
)

// Presence styles.
var (
	brandStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPurple)
	labelStyle    = lipgloss.NewStyle().Width(11).Foreground(colorDim)
	valueStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	presenceStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	idleStyle     = lipgloss.NewStyle().Foreground(colorDim)
	runningStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	warningStyle  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// Key hint styles for status bar.
var (
	keyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	hintStyle = lipgloss.NewStyle().Foreground(colorDim)
)
