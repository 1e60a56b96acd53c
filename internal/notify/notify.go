// Package notify reports tool outcomes to the user, either through the log
// or through native message boxes.
package notify

import (
	"errors"
	"fmt"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"
)

// ErrCancelled is returned when the user closes a file picker.
var ErrCancelled = errors.New("cancelled")

// Notifier receives user-facing messages.
type Notifier interface {
	Info(title, msg string)
	Error(title string, err error)
}

// Console logs every message.
type Console struct {
	log *zap.Logger
}

// NewConsole creates a notifier that logs to log.
func NewConsole(log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	return &Console{log: log}
}

func (c *Console) Info(title, msg string) {
	c.log.Info(msg, zap.String("title", title))
}

func (c *Console) Error(title string, err error) {
	c.log.Error(title, zap.Error(err))
}

// Dialog logs every message and additionally shows errors in a message box.
type Dialog struct {
	console *Console

	// show displays a message box; replaced in tests.
	show func(title, msg string, isError bool)
}

// NewDialog creates a notifier that pops up native message boxes.
func NewDialog(log *zap.Logger) *Dialog {
	return &Dialog{console: NewConsole(log), show: showMessage}
}

func showMessage(title, msg string, isError bool) {
	b := dialog.Message("%s", msg).Title(title)
	if isError {
		b.Error()
		return
	}
	b.Info()
}

func (d *Dialog) Info(title, msg string) {
	d.console.Info(title, msg)
}

func (d *Dialog) Error(title string, err error) {
	d.console.Error(title, err)
	d.show(title, err.Error(), true)
}

// Summary shows a closing message box with the batch outcome.
func (d *Dialog) Summary(title string, done, failed int) {
	msg := fmt.Sprintf("%d file(s) converted", done)
	if failed > 0 {
		msg += fmt.Sprintf(", %d failed", failed)
	}
	d.console.Info(title, msg)
	d.show(title, msg, failed > 0)
}

// New returns a Dialog when popup is set and a Console otherwise.
func New(popup bool, log *zap.Logger) Notifier {
	if popup {
		return NewDialog(log)
	}
	return NewConsole(log)
}

// PickFiles asks the user for an input file with a native file picker.
// exts are extensions without the leading dot.
func PickFiles(title, filter string, exts ...string) ([]string, error) {
	path, err := dialog.File().
		Filter(filter, exts...).
		Filter("All Files", "*").
		Title(title).
		Load()
	if errors.Is(err, dialog.ErrCancelled) {
		return nil, ErrCancelled
	}
	if err != nil {
		return nil, fmt.Errorf("file dialog: %w", err)
	}
	return []string{path}, nil
}
