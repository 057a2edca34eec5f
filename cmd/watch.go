package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edittrail/edittrail/internal/assignment"
	"github.com/edittrail/edittrail/internal/backend"
	"github.com/edittrail/edittrail/internal/citation"
	"github.com/edittrail/edittrail/internal/engine"
	"github.com/edittrail/edittrail/internal/host"
	"github.com/edittrail/edittrail/internal/identity"
	"github.com/edittrail/edittrail/internal/prompt"
	"github.com/edittrail/edittrail/internal/repolink"
	"github.com/edittrail/edittrail/internal/slogutil"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a workspace for edits and report them per assignment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := resolveWorkDir(args)
		if err != nil {
			return err
		}
		logger := newLogger()

		watcher := host.NewWatcher(workDir, cfg.IgnorePatterns, logger)
		eng, err := newEngine(workDir, logger, watcher)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 2)
		go func() { errCh <- watcher.Run(ctx, eng) }()
		go func() { errCh <- eng.Run(ctx) }()

		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		}
	},
}

// resolveWorkDir returns the absolute workspace directory: the single
// positional argument if given, otherwise the current directory.
func resolveWorkDir(args []string) (string, error) {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("workspace directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace %s is not a directory", abs)
	}
	return abs, nil
}

// newLogger honors the log_file config key for daemon runs; the file handle
// stays open for the process lifetime. An unusable path falls back to stderr.
func newLogger() *slog.Logger {
	level := slogutil.LevelFromString(cfg.LogLevel)
	if cfg.LogFile != "" {
		logger, _, err := slogutil.NewFileLogger(cfg.LogFile, level)
		if err == nil {
			return logger
		}
		fmt.Fprintf(os.Stderr, "log file %s unusable, logging to stderr: %v\n", cfg.LogFile, err)
	}
	return slogutil.NewLogger(os.Stderr, level)
}

// newEngine wires the full tracking core around a document reader: bindings,
// catalog, identity and repo-link resolution, the backend gateway, and the
// citation workflow prompting on the terminal.
func newEngine(workDir string, logger *slog.Logger, docs engine.DocumentReader) (*engine.Engine, error) {
	bindings, err := assignment.OpenBindings()
	if err != nil {
		return nil, err
	}
	catalog := &assignment.Catalog{}
	ident := identity.New(workDir, logger)
	links := repolink.New(logger)
	gateway := backend.NewClient(cfg.BackendURL, nil)

	workflow := citation.New(citation.Deps{
		Prompter:      &prompt.Terminal{Logger: logger},
		Submitter:     gateway,
		Logger:        logger,
		Identity:      ident.Resolve,
		Bindings:      bindings,
		Catalog:       catalog,
		WindowSeconds: cfg.FlushIntervalSeconds,
	})

	return engine.New(engine.Options{
		FlushInterval:  cfg.FlushInterval(),
		BurstThreshold: cfg.BurstThreshold,
	}, engine.Deps{
		Logger:   logger,
		Docs:     docs,
		Bindings: bindings,
		Catalog:  catalog,
		Gateway:  gateway,
		Identity: ident.Resolve,
		RepoLink: links.Resolve,
		Bursts:   workflow,
	}), nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
