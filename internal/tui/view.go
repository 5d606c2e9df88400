package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alter-dl/alter/internal/engine"
	"github.com/alter-dl/alter/internal/tui/colors"
)

const (
	colorStart = colors.ProgressStart
	colorEnd   = colors.ProgressEnd
)

func barWidth(termWidth int) int {
	w := termWidth - 30
	if w < 10 {
		w = 10
	}
	return w
}

var (
	nameStyle = lipgloss.NewStyle().Foreground(colors.White).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(colors.LightGray)
)

func statusStyle(s engine.Status) lipgloss.Style {
	switch s {
	case engine.StatusError:
		return lipgloss.NewStyle().Foreground(colors.StateError)
	case engine.StatusPaused, engine.StatusQueued:
		return lipgloss.NewStyle().Foreground(colors.StatePaused)
	case engine.StatusCompleted:
		return lipgloss.NewStyle().Foreground(colors.StateDone)
	case engine.StatusStopped:
		return lipgloss.NewStyle().Foreground(colors.Gray)
	default:
		return lipgloss.NewStyle().Foreground(colors.StateDownloading)
	}
}

func (m Model) View() string {
	if len(m.order) == 0 {
		return dimStyle.Render("waiting for downloads...") + "\n"
	}

	var b strings.Builder
	for _, id := range m.order {
		r := m.rows[id]
		r.bar.Width = barWidth(m.width)
		b.WriteString(nameStyle.Render(r.name))
		b.WriteString("  ")
		b.WriteString(r.bar.ViewAs(r.percent))
		b.WriteString("  ")
		b.WriteString(statusStyle(r.status).Render(string(r.status)))
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(formatSpeed(r.speedBPS)))
		if r.status == engine.StatusError && r.errMsg != "" {
			b.WriteString("  ")
			b.WriteString(statusStyle(engine.StatusError).Render(r.errMsg))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("\n%d task(s) — q to quit", len(m.order))))
	return b.String()
}
