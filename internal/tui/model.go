// Package tui is a thin bubbletea consumer of the engine's progress
// channel: one of several possible ways to watch a run (the other being
// the CLI's own status line-printer), not part of the engine itself.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/progress"

	"github.com/alter-dl/alter/internal/engine"
	"github.com/alter-dl/alter/internal/humanize"
)

type row struct {
	id       string
	name     string
	status   engine.Status
	errMsg   string
	speedBPS float64
	percent  float64
	bar      progress.Model
}

// Model is a bubbletea model that renders one progress row per task ID seen
// on its input channel.
type Model struct {
	updates <-chan engine.DownloadProgress
	order   []string
	rows    map[string]*row
	closed  bool
	width   int
}

// New builds a Model that reads progress events from updates until it is
// closed or the user quits.
func New(updates <-chan engine.DownloadProgress) Model {
	return Model{
		updates: updates,
		rows:    make(map[string]*row),
		width:   60,
	}
}

func (m Model) Init() tea.Cmd {
	return listenForProgress(m.updates)
}

type progressMsg engine.DownloadProgress
type channelClosedMsg struct{}

func listenForProgress(ch <-chan engine.DownloadProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return progressMsg(p)
	}
}

func (m *Model) upsert(p engine.DownloadProgress) {
	r, ok := m.rows[p.TaskID]
	if !ok {
		bar := progress.New(progress.WithScaledGradient(colorStart, colorEnd))
		r = &row{id: p.TaskID, bar: bar}
		m.rows[p.TaskID] = r
		m.order = append(m.order, p.TaskID)
	}
	r.name = p.Name
	r.status = p.Status
	r.errMsg = p.Error
	r.speedBPS = p.SpeedBPS
	if p.Total != nil && *p.Total > 0 {
		r.percent = float64(p.Downloaded) / float64(*p.Total)
	}
	if p.Status == engine.StatusCompleted {
		r.percent = 1.0
	}
}

func (m Model) allTerminal() bool {
	if len(m.rows) == 0 {
		return false
	}
	for _, r := range m.rows {
		if !r.status.Terminal() {
			return false
		}
	}
	return true
}

func formatSpeed(bps float64) string {
	if bps <= 0 {
		return "-"
	}
	return humanize.FormatBytes(int64(bps)) + "/s"
}
