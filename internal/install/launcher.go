// Package install hands package installation to an interactive terminal
// through a generated shell script and detects completion through a
// one-shot marker file holding the script's exit code.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/pacpilot/internal/apperr"
	"github.com/blackwell-systems/pacpilot/internal/logger"
	"github.com/blackwell-systems/pacpilot/internal/pacman"
)

// ErrNoCommands is returned when there is nothing to install.
var ErrNoCommands = errors.New("no packages selected for installation")

// Handle identifies one launched installation.
type Handle struct {
	Script   string
	Marker   string
	Terminal string
	Started  time.Time
}

// Launcher writes install scripts and starts them through a Terminal.
type Launcher struct {
	terminal Terminal
	paths    Paths

	// Pause makes the script wait for Enter before exiting.
	Pause bool
}

// NewLauncher creates a Launcher using the given terminal and paths.
func NewLauncher(t Terminal, paths Paths) *Launcher {
	return &Launcher{terminal: t, paths: paths, Pause: true}
}

// Launch installs names from the official repositories.
func (l *Launcher) Launch(names []string) (*Handle, error) {
	argv, err := pacman.InstallCommand(names)
	if err != nil {
		return nil, err
	}
	return l.LaunchCommands(argv)
}

// LaunchCommands writes a script running each argv in turn and starts it.
// Any stale marker from an earlier run is removed first.
func (l *Launcher) LaunchCommands(commands ...[]string) (*Handle, error) {
	var cmds [][]string
	for _, c := range commands {
		if len(c) > 0 {
			cmds = append(cmds, c)
		}
	}
	if len(cmds) == 0 {
		return nil, ErrNoCommands
	}

	if err := os.Remove(l.paths.Marker); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove stale completion marker", "path", l.paths.Marker, "error", err)
	}

	content := Script(cmds, l.paths.Marker, l.Pause)
	if err := os.WriteFile(l.paths.Script, []byte(content), 0o755); err != nil {
		return nil, apperr.IOFailure(err, "failed to write install script %s", l.paths.Script)
	}
	// WriteFile keeps the mode of an existing file and is subject to umask.
	if err := os.Chmod(l.paths.Script, 0o755); err != nil {
		return nil, apperr.IOFailure(err, "failed to make install script executable")
	}

	started := time.Now()
	name, err := l.terminal.Run("bash " + singleQuote(l.paths.Script))
	if err != nil {
		return nil, fmt.Errorf("failed to launch install: %w", err)
	}

	return &Handle{
		Script:   l.paths.Script,
		Marker:   l.paths.Marker,
		Terminal: name,
		Started:  started,
	}, nil
}

// Poll checks the handle's marker, see PollMarker.
func (l *Launcher) Poll(h *Handle) (success, done bool) {
	return PollMarker(h.Marker)
}

// PollMarker reports the outcome recorded in marker. done is false while
// the marker does not exist. Once observed the marker is deleted, so an
// outcome is reported only once. A marker whose content is not an integer
// counts as success.
func PollMarker(marker string) (success, done bool) {
	if _, err := os.Stat(marker); err != nil {
		return false, false
	}

	data, readErr := os.ReadFile(marker)
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove completion marker", "path", marker, "error", err)
	}

	if readErr != nil {
		logger.Warn("unreadable completion marker, assuming success", "path", marker, "error", readErr)
		return true, true
	}

	code, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		logger.Warn("unparseable completion marker, assuming success", "content", string(data))
		return true, true
	}

	return code == 0, true
}

// Wait polls the marker every interval until an outcome arrives or ctx is
// done. Marker creation seen through fsnotify triggers an early poll.
func (l *Launcher) Wait(ctx context.Context, h *Handle, interval time.Duration) (bool, error) {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("fsnotify unavailable, polling only", "error", err)
	} else {
		defer w.Close()
		if err := w.Add(filepath.Dir(h.Marker)); err != nil {
			logger.Debug("cannot watch marker directory, polling only", "error", err)
		} else {
			events, errs = w.Events, w.Errors
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if success, done := l.Poll(h); done {
			return success, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Name == h.Marker && (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
				logger.Debug("completion marker appeared", "path", ev.Name)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Debug("fsnotify error", "error", err)
		}
	}
}
