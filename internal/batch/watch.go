package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is converted.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reconverts input files when they are created or written.
type Watcher struct {
	runner *Runner
	fs     *fsnotify.Watcher
	match  func(path string) bool
	files  map[string]bool
	dirs   map[string]bool

	// Debounce delays conversion until writes to a file have settled.
	Debounce time.Duration

	// OnConvert, if set, is called after every conversion attempt.
	OnConvert func(path string, err error)
}

// NewWatcher starts watching paths. A directory is watched for every file
// match accepts; a regular file is watched on its own. The watches are in
// place when NewWatcher returns.
func (r *Runner) NewWatcher(paths []string, match func(string) bool) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		runner:   r,
		fs:       fs,
		match:    match,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		Debounce: DefaultDebounce,
	}

	for _, p := range paths {
		p = filepath.Clean(p)
		info, err := os.Stat(p)
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("watching %s: %w", p, err)
		}
		dir := p
		if info.IsDir() {
			w.dirs[p] = true
		} else {
			w.files[p] = true
			dir = filepath.Dir(p)
		}
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// wanted reports whether an event for name should trigger a conversion.
func (w *Watcher) wanted(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	return w.dirs[filepath.Dir(name)] && w.match != nil && w.match(name)
}

// Run converts changed files until ctx is cancelled. Files are converted
// one at a time in name order.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	log := w.runner.Log

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.wanted(e.Name) {
				continue
			}
			log.Debug("File changed", zap.String("file", e.Name), zap.Stringer("op", e.Op))
			pending[filepath.Clean(e.Name)] = struct{}{}
			timer.Reset(w.Debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watch error", zap.Error(err))

		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			clear(pending)
			sort.Strings(names)
			for _, name := range names {
				err := w.runner.one(name)
				if err == nil {
					log.Info("Reconverted", zap.String("file", name))
				}
				if w.OnConvert != nil {
					w.OnConvert(name, err)
				}
			}
		}
	}
}

// Close stops watching without running.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
