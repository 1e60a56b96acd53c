// Package batch runs a conversion over many input files and optionally
// keeps converting them as they change on disk.
package batch

import (
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/cfrtools/internal/notify"
)

// Func converts a single file.
type Func func(path string) error

// Failure records a file that could not be converted.
type Failure struct {
	Path string
	Err  error
}

// Summary is the outcome of a batch.
type Summary struct {
	Done     []string
	Failed   []Failure
	Duration time.Duration
}

// OK reports whether every file was converted.
func (s *Summary) OK() bool { return len(s.Failed) == 0 }

// Runner converts files one at a time and reports failures without
// stopping.
type Runner struct {
	Convert  Func
	Notifier notify.Notifier
	Log      *zap.Logger
}

// NewRunner creates a runner that reports through n.
func NewRunner(fn Func, n notify.Notifier, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if n == nil {
		n = notify.NewConsole(log)
	}
	return &Runner{Convert: fn, Notifier: n, Log: log}
}

// Run converts each file in order.
func (r *Runner) Run(files []string) Summary {
	start := time.Now()
	var s Summary
	for _, path := range files {
		if err := r.one(path); err != nil {
			s.Failed = append(s.Failed, Failure{Path: path, Err: err})
			continue
		}
		s.Done = append(s.Done, path)
	}
	s.Duration = time.Since(start)
	r.Log.Info("Batch finished",
		zap.Int("done", len(s.Done)),
		zap.Int("failed", len(s.Failed)),
		zap.Duration("elapsed", s.Duration))
	return s
}

func (r *Runner) one(path string) error {
	start := time.Now()
	if err := r.Convert(path); err != nil {
		r.Notifier.Error(filepath.Base(path), err)
		return err
	}
	r.Log.Debug("Converted", zap.String("file", path), zap.Duration("elapsed", time.Since(start)))
	return nil
}
