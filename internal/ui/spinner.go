// Package ui renders progress for long running commands on stderr.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Task is the text shown around one operation.
type Task struct {
	Progress string
	Success  string
	Failure  string
}

// Mode selects how progress is shown.
type Mode int

const (
	// ModeQuiet prints nothing.
	ModeQuiet Mode = iota
	// ModePlain prints the progress and result lines without animation.
	ModePlain
	// ModeAnimated redraws a spinner frame in place.
	ModeAnimated
)

// Spinner shows progress for tasks. It is safe to reuse sequentially but
// not to run two tasks at once.
type Spinner struct {
	out   io.Writer
	mode  Mode
	style spinner.Spinner

	okStyle   lipgloss.Style
	failStyle lipgloss.Style
	dimStyle  lipgloss.Style
}

// New picks the mode from quiet and whether w is a terminal.
func New(w io.Writer, quiet bool) *Spinner {
	mode := ModePlain
	switch {
	case quiet:
		mode = ModeQuiet
	case isTerminal(w):
		mode = ModeAnimated
	}

	return NewWithMode(w, mode)
}

// NewWithMode creates a spinner with an explicit mode.
func NewWithMode(w io.Writer, mode Mode) *Spinner {
	return &Spinner{
		out:   w,
		mode:  mode,
		style: spinner.MiniDot,

		okStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}),
		failStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),
		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// Mode reports the active mode.
func (s *Spinner) Mode() Mode { return s.mode }

// Do runs fn while showing task.Progress, then prints task.Success or
// task.Failure. fn's error is returned unchanged.
func (s *Spinner) Do(ctx context.Context, task Task, fn func(ctx context.Context) error) error {
	var err error
	switch s.mode {
	case ModeQuiet:
		return fn(ctx)
	case ModePlain:
		fmt.Fprintln(s.out, task.Progress)
		err = fn(ctx)
	default:
		err = s.animate(ctx, task.Progress, fn)
	}

	s.finish(task, err)

	return err
}

// Spin is Do for operations that return a value.
func Spin[T any](ctx context.Context, s *Spinner, task Task, fn func(ctx context.Context) (T, error)) (T, error) {
	var v T
	err := s.Do(ctx, task, func(ctx context.Context) error {
		var err error
		v, err = fn(ctx)
		return err
	})

	return v, err
}

func (s *Spinner) animate(ctx context.Context, message string, fn func(ctx context.Context) error) error {
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		interval := s.style.FPS
		if interval <= 0 {
			interval = 100 * time.Millisecond
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			glyph := s.style.Frames[frame%len(s.style.Frames)]
			fmt.Fprintf(s.out, "\r%s %s", s.dimStyle.Render(glyph), message)

			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	err := fn(ctx)
	close(stop)
	wg.Wait()

	// clear the spinner line
	fmt.Fprint(s.out, "\r\x1b[2K")

	return err
}

func (s *Spinner) finish(task Task, err error) {
	if err != nil {
		if task.Failure != "" {
			fmt.Fprintln(s.out, s.render(s.failStyle, "✗ "+task.Failure))
		}

		return
	}

	if task.Success != "" {
		fmt.Fprintln(s.out, s.render(s.okStyle, "✓ "+task.Success))
	}
}

func (s *Spinner) render(style lipgloss.Style, text string) string {
	if s.mode != ModeAnimated {
		return text
	}

	return style.Render(text)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
