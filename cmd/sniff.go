package cmd

import (
	"os"

	"github.com/h2non/filetype"

	"github.com/alter-dl/alter/internal/engine"
	"github.com/alter-dl/alter/internal/xlog"
)

// logContentTypes annotates each completed task with a sniffed MIME type in
// the debug log, purely as a --verbose convenience; it never affects the
// resolved filename or output path.
func logContentTypes(manager *engine.Manager) {
	for _, p := range manager.List() {
		if p.Status != engine.StatusCompleted {
			continue
		}
		path, err := manager.OutputPath(p.TaskID)
		if err != nil {
			continue
		}
		kind := sniffFile(path)
		xlog.L().Debug().Str("task", p.TaskID).Str("name", p.Name).Str("content_type", kind).Msg("completed")
	}
}

func sniffFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "unknown"
	}
	defer f.Close()

	head := make([]byte, 261)
	n, _ := f.Read(head)
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "unknown"
	}
	return kind.MIME.Value
}
