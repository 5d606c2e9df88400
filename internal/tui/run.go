package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alter-dl/alter/internal/engine"
)

// Run drives the progress viewer to completion: it exits once every task it
// has seen reaches a terminal status, or the user presses q/ctrl+c/esc.
func Run(updates <-chan engine.DownloadProgress) error {
	p := tea.NewProgram(New(updates))
	_, err := p.Run()
	return err
}
