package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alter-dl/alter/internal/engine"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case progressMsg:
		m.upsert(engine.DownloadProgress(msg))
		if m.allTerminal() {
			return m, tea.Batch(listenForProgress(m.updates), tea.Quit)
		}
		return m, listenForProgress(m.updates)
	case channelClosedMsg:
		m.closed = true
		if m.allTerminal() {
			return m, tea.Quit
		}
	}
	return m, nil
}
