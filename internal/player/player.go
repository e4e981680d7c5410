// Package player hands a synthesized answer to something that can play it.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/skratchdot/open-golang/open"
)

// Player plays the audio file at path.
type Player interface {
	Play(ctx context.Context, path string) error
}

// New returns the player for mode: "system", "log" or "auto" (system when a
// desktop session is detected, log otherwise).
func New(mode string) (Player, error) {
	switch mode {
	case "system":
		return NewSystem(), nil
	case "log":
		return Log{}, nil
	case "", "auto":
		if hasDesktop(runtime.GOOS, os.Getenv) {
			return NewSystem(), nil
		}
		slog.Debug("no desktop session detected, audio will only be logged")
		return Log{}, nil
	default:
		return nil, fmt.Errorf("unknown player %q (want auto, system or log)", mode)
	}
}

func hasDesktop(goos string, getenv func(string) string) bool {
	switch goos {
	case "darwin", "windows":
		return true
	default:
		return getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != ""
	}
}

// System opens the file with the operating system's default handler
// (open on macOS, start on Windows, xdg-open elsewhere).
type System struct {
	open func(path string) error
}

// NewSystem creates a System player for the running OS.
func NewSystem() *System {
	return &System{open: open.Start}
}

// Play starts the default handler and returns once it has been launched.
func (s *System) Play(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.Info("playing answer", "path", path)
	if err := s.open(path); err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return nil
}

// Log records where the answer was written instead of playing it.
type Log struct{}

// Play logs path.
func (Log) Play(_ context.Context, path string) error {
	slog.Info("answer audio saved", "path", path)
	return nil
}
