// Package app holds the start-up and batch plumbing shared by the command
// line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/cfrtools/internal/batch"
	"github.com/Faultbox/cfrtools/internal/config"
	"github.com/Faultbox/cfrtools/internal/logger"
	"github.com/Faultbox/cfrtools/internal/notify"
)

// Tool is the state every command needs after start-up.
type Tool struct {
	Name     string
	Config   *config.Config
	Log      *zap.Logger
	Notifier notify.Notifier
}

// Start parses flags, loads the config and initializes logging. It exits
// the process on configuration errors and after --save-config.
func Start(name string) *Tool {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.SaveConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", path)
		os.Exit(0)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	log := logger.Named(name)
	log.Debug("Config loaded", zap.Any("config", cfg))
	return &Tool{
		Name:     name,
		Config:   cfg,
		Log:      log,
		Notifier: notify.New(cfg.Report.Popup, log),
	}
}

// Close flushes the log.
func (t *Tool) Close() {
	logger.Sync()
}

// Inputs returns the files named on the command line. With popups enabled
// and no arguments the user is asked to pick a file.
func (t *Tool) Inputs(filter string, exts ...string) ([]string, error) {
	files := config.Args()
	if len(files) > 0 {
		return files, nil
	}
	if !t.Config.Report.Popup {
		return nil, errors.New("no input files")
	}
	return notify.PickFiles(t.Name, filter, exts...)
}

// HasExt returns a matcher for files with one of the given extensions.
func HasExt(exts ...string) func(string) bool {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if strings.ToLower(e) == ext {
				return true
			}
		}
		return false
	}
}

// Run converts files with fn and returns the process exit code. In watch
// mode it keeps reconverting the inputs until interrupted.
func (t *Tool) Run(files []string, fn batch.Func, match func(string) bool) int {
	inputs, err := Expand(files, match)
	if err != nil {
		t.Notifier.Error(t.Name, err)
		return 1
	}
	runner := batch.NewRunner(fn, t.Notifier, t.Log)
	summary := runner.Run(inputs)

	if d, ok := t.Notifier.(*notify.Dialog); ok {
		d.Summary(t.Name, len(summary.Done), len(summary.Failed))
	}

	if t.Config.Report.Watch {
		if err := t.watch(runner, files, match); err != nil {
			t.Log.Error("Watch failed", zap.Error(err))
			return 1
		}
	}

	if !summary.OK() {
		return 1
	}
	return 0
}

// Expand replaces every directory in paths with the files in it that match
// accepts, in name order. Other paths are kept as given.
func Expand(paths []string, match func(string) bool) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		for _, e := range entries {
			name := filepath.Join(p, e.Name())
			if !e.IsDir() && match(name) {
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func (t *Tool) watch(runner *batch.Runner, files []string, match func(string) bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := runner.NewWatcher(files, match)
	if err != nil {
		return err
	}
	t.Log.Info("Watching for changes", zap.Strings("paths", files))
	return w.Run(ctx)
}
