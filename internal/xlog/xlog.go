// Package xlog provides the process-wide structured logger. Verbose mode
// and an optional log file are configured once at startup; every package
// logs through the shared logger instead of rolling its own.
package xlog

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Configure sets the global logger's verbosity and, if logDir is non-empty,
// adds a dated file under logDir alongside stderr. Safe to call once; later
// calls are no-ops.
func Configure(verbose bool, logDir string) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}

		var writers []io.Writer
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

		if logDir != "" {
			if err := os.MkdirAll(logDir, 0o755); err == nil {
				name := filepath.Join(logDir, "alter-"+time.Now().Format("2006-01-02")+".log")
				if f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
					writers = append(writers, f)
				}
			}
		}

		logger = zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()
	})
}

// L returns the shared logger. Configure defaults apply if Configure was
// never called (info level, stderr only).
func L() *zerolog.Logger {
	once.Do(func() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(zerolog.InfoLevel).With().Timestamp().Logger()
	})
	return &logger
}
