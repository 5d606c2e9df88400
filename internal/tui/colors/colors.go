// Package colors holds the palette shared across the progress viewer.
package colors

import "github.com/charmbracelet/lipgloss"

var (
	NeonPurple = lipgloss.Color("#bd93f9")
	NeonCyan   = lipgloss.Color("#8be9fd")
	Gray       = lipgloss.Color("#44475a")
	LightGray  = lipgloss.Color("#a9b1d6")
	White      = lipgloss.Color("#f8f8f2")
)

// State colors match engine.Status values.
var (
	StateError       = lipgloss.Color("#ff5555")
	StatePaused      = lipgloss.Color("#ffb86c")
	StateDownloading = lipgloss.Color("#50fa7b")
	StateDone        = lipgloss.Color("#bd93f9")
)

const (
	ProgressStart = "#ff79c6"
	ProgressEnd   = "#bd93f9"
)
