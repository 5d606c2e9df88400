package cmd

import (
	"fmt"
	"os"

	"github.com/alter-dl/alter/internal/engine"
	"github.com/alter-dl/alter/internal/humanize"
)

// isatty reports whether stdout looks like an interactive terminal. It is
// deliberately conservative: anything it can't confirm is treated as "not a
// terminal" so piped/redirected output never tries to draw a TUI.
func isatty() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// runHeadless prints plain status lines instead of drawing the TUI, for
// piped output or --no-progress: a "start" line each time a task enters
// downloading, and one line when it completes, fails, or is stopped. It
// returns once every task the manager lists has been seen in a terminal
// status, or when updates is closed.
func runHeadless(manager *engine.Manager, updates <-chan engine.DownloadProgress) error {
	seen := make(map[string]engine.Status)

	for p := range updates {
		prev, known := seen[p.TaskID]
		if !known || prev != p.Status {
			printStatusLine(p)
		}
		seen[p.TaskID] = p.Status

		if allKnownTerminal(manager, seen) {
			break
		}
	}
	return nil
}

func allKnownTerminal(manager *engine.Manager, seen map[string]engine.Status) bool {
	list := manager.List()
	if len(list) == 0 {
		return false
	}
	for _, p := range list {
		if !seen[p.TaskID].Terminal() {
			return false
		}
	}
	return true
}

func printStatusLine(p engine.DownloadProgress) {
	switch p.Status {
	case engine.StatusCompleted:
		size := "?"
		if p.Total != nil {
			size = humanize.FormatBytes(*p.Total)
		}
		fmt.Printf("done   %s (%s)\n", p.Name, size)
	case engine.StatusError:
		fmt.Printf("error  %s: %s\n", p.Name, p.Error)
	case engine.StatusStopped:
		fmt.Printf("stopped %s\n", p.Name)
	case engine.StatusDownloading:
		fmt.Printf("start  %s\n", p.Name)
	}
}
