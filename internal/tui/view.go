package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func renderView(m Model, width int) string {
	sections := []string{
		renderHeader(m, width),
		"",
		renderCard(m, width),
	}
	if m.showHelp {
		sections = append(sections, "", renderHelp())
	}
	body := lipgloss.JoinVertical(lipgloss.Left, sections...)

	bar := renderStatusBar(m, width)
	if m.height > 0 {
		gap := m.height - lipgloss.Height(body) - lipgloss.Height(bar)
		if gap > 0 {
			body += strings.Repeat("\n", gap)
		}
	}
	return body + "\n" + bar
}

func renderHeader(m Model, width int) string {
	left := " " + brandStyle.Render("lgrp") + " " + hintStyle.Render("Logic Pro RPC")

	right := ""
	if m.status != nil {
		right = hintStyle.Render(fmt.Sprintf("logicrpcd %s  pid %d ", m.status.Version, m.status.Pid))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return headerStyle.Render(ansi.Truncate(left+strings.Repeat(" ", gap)+right, width, "…"))
}

func renderCard(m Model, width int) string {
	// Border and padding take 6 columns.
	inner := width - 6
	if inner < 10 {
		inner = 10
	}

	var lines []string
	add := func(label, value string) {
		lines = append(lines, ansi.Truncate(labelStyle.Render(label)+value, inner, "…"))
	}

	switch {
	case m.status == nil && m.err == nil:
		lines = append(lines, m.spinner.View()+" Connecting to daemon…")

	case m.status == nil:
		lines = append(lines, warningStyle.Render("Daemon unreachable"))
		lines = append(lines, ansi.Truncate(errorStyle.Render(m.err.Error()), inner, "…"))

	default:
		p := m.status.Presence
		if p == nil || !p.Enabled {
			add("Presence", warningStyle.Render("disabled"))
			if p != nil && p.StartError != "" {
				add("Reason", errorStyle.Render(p.StartError))
			}
			lines = append(lines, hintStyle.Render("Start Discord, then run logicrpc daemon restart"))
			break
		}

		if p.Published {
			lines = append(lines, ansi.Truncate(presenceStyle.Render("▶ "+p.Text), inner, "…"))
		} else {
			lines = append(lines, idleStyle.Render("Nothing published"))
		}
		lines = append(lines, "")

		target := idleStyle.Render("not running")
		if p.TargetRunning {
			target = m.spinner.View() + runningStyle.Render("running")
		}
		add("Logic Pro", target)
		if p.Document != "" {
			add("Project", valueStyle.Render(p.Document))
		}
		if p.LastPublishedAt != nil {
			add("Updated", valueStyle.Render(humanizeSince(m.now().Sub(p.LastPublishedAt.AsTime()))))
		}
		add("Calls", valueStyle.Render(fmt.Sprintf("%d set · %d clear", p.SetCalls, p.ClearCalls)))
		if p.LastError != "" {
			add("Error", errorStyle.Render(p.LastError))
		}
	}

	return cardStyle.Width(inner + 4).Render(strings.Join(lines, "\n"))
}

func renderHelp() string {
	return strings.Join([]string{
		keyHint(keys.Quit.Help().Key, keys.Quit.Help().Desc),
		keyHint(keys.Refresh.Help().Key, keys.Refresh.Help().Desc),
		keyHint(keys.Help.Help().Key, "toggle help"),
	}, "\n")
}

func renderStatusBar(m Model, width int) string {
	left := " " + keyHint("q", "quit") + "  " + keyHint("r", "refresh") + "  " + keyHint("?", "help")

	var right string
	if m.connected {
		right = lipgloss.NewStyle().Foreground(colorGreen).Render("Connected") + " "
	} else {
		right = lipgloss.NewStyle().Foreground(colorYellow).Bold(true).Render("⚠ Disconnected") + " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := ansi.Truncate(left+strings.Repeat(" ", gap)+right, width, "")
	return statusBarStyle.Width(width).Render(line)
}

func keyHint(k, desc string) string {
	return keyStyle.Render(k) + " " + hintStyle.Render(desc)
}

func humanizeSince(d time.Duration) string {
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
