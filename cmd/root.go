// Package cmd implements the alter command-line surface: a single command
// that downloads one or more URLs to completion and exits.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alter-dl/alter/internal/clipboard"
	"github.com/alter-dl/alter/internal/engine"
	"github.com/alter-dl/alter/internal/lock"
	"github.com/alter-dl/alter/internal/tui"
	"github.com/alter-dl/alter/internal/xlog"
)

// Version is set via ldflags during build.
var Version = "dev"

var (
	outputs        []string
	parts          int
	chunkSize      int64
	timeoutSeconds int
	connections    int
	verbose        bool
	watchClipboard bool
	noProgress     bool
)

var rootCmd = &cobra.Command{
	Use:     "alter [urls...]",
	Short:   "A concurrent, range-aware HTTP(S) download engine",
	Version: Version,
	Args:    cobra.ArbitraryArgs,
	RunE:    runDownloads,
}

// Execute runs the root command, printing any error to stderr and exiting
// with status 1. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringArrayVarP(&outputs, "output", "o", nil, "output path, paired with URLs by position (repeatable)")
	rootCmd.Flags().IntVar(&parts, "parts", 6, "number of ranges to split a download into")
	rootCmd.Flags().Int64Var(&chunkSize, "chunk-size", 1*engine.MB, "bytes read/written per I/O step")
	rootCmd.Flags().IntVar(&timeoutSeconds, "timeout", 30, "connect/read timeout in seconds")
	rootCmd.Flags().IntVar(&connections, "connections", 4, "maximum concurrent connections per task")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&watchClipboard, "watch-clipboard", false, "also queue http(s) URLs copied to the clipboard while this run is active")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the interactive progress viewer; print a start and a final line per task instead")
}

func runDownloads(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !watchClipboard {
		return fmt.Errorf("no URLs given (pass one or more, or use --watch-clipboard)")
	}

	tempRoot, err := defaultTempRoot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(tempRoot, 0o755); err != nil {
		return fmt.Errorf("create temp root: %w", err)
	}

	logDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		logDir = filepath.Join(home, ".alter", "logs")
	}
	xlog.Configure(verbose || os.Getenv("ALTER_DEBUG") != "", logDir)

	instLock, locked, err := lock.Acquire(tempRoot)
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another alter instance is already using %s", tempRoot)
	}
	defer instLock.Release()

	cfg := engine.TaskConfig{
		Parts:          parts,
		ChunkSize:      chunkSize,
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
		MaxConnections: connections,
	}

	updates := make(chan engine.DownloadProgress, 256)
	manager := engine.NewManager(updates, tempRoot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		xlog.L().Warn().Msg("received interrupt, stopping active tasks")
		for _, p := range manager.List() {
			manager.Stop(p.TaskID)
		}
		cancel()
	}()

	for i, url := range args {
		req := engine.DownloadRequest{URL: url, Output: outputAt(i)}
		id := manager.Add(req, cfg)
		manager.Start(id)
	}

	if watchClipboard {
		go watchClipboardURLs(ctx, manager, cfg)
	}

	var runErr error
	if noProgress || !isatty() {
		runErr = runHeadless(manager, updates)
	} else {
		runErr = tui.Run(updates)
	}

	if verbose {
		logContentTypes(manager)
	}
	return runErr
}

// outputAt pairs the i-th URL with the i-th --output flag: extra URLs get
// no explicit output, extra outputs are ignored.
func outputAt(i int) string {
	if i < len(outputs) {
		return outputs[i]
	}
	return ""
}

func watchClipboardURLs(ctx context.Context, manager *engine.Manager, cfg engine.TaskConfig) {
	for url := range clipboard.Watch(ctx) {
		id := manager.Add(engine.DownloadRequest{URL: url}, cfg)
		manager.Start(id)
	}
}

func defaultTempRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".alter", "temp"), nil
}
