package install

//go:generate mockgen -source=terminal.go -destination=mock_terminal_test.go -package=install

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/blackwell-systems/pacpilot/internal/logger"
	"github.com/blackwell-systems/pacpilot/internal/runner"
)

// ErrNoTerminal is returned when no terminal emulator could be started.
var ErrNoTerminal = errors.New("no suitable terminal emulator found")

// Terminal runs a shell command line interactively and returns the name of
// whatever ran it.
type Terminal interface {
	Run(command string) (string, error)
}

// Emulator describes how to open one terminal emulator running a command.
type Emulator struct {
	Name string
	Args func(command string) []string
}

// KnownEmulators lists the supported emulators in the order they are tried.
var KnownEmulators = []Emulator{
	{"gnome-terminal", func(c string) []string { return []string{"--geometry=80x24", "--", "bash", "-c", c} }},
	{"konsole", func(c string) []string { return []string{"--geometry", "80x24", "-e", "bash", "-c", c} }},
	{"cosmic-term", func(c string) []string { return []string{"--geometry", "80x24", "-e", "bash", "-c", c} }},
	{"xfce4-terminal", func(c string) []string { return []string{"--geometry=80x24", "-e", "bash", "-c", c} }},
	{"alacritty", func(c string) []string {
		return []string{"--option", "window.dimensions.columns=80", "--option", "window.dimensions.lines=24", "-e", "bash", "-c", c}
	}},
	{"kitty", func(c string) []string {
		return []string{"--override", "initial_window_width=80c", "--override", "initial_window_height=24c", "bash", "-c", c}
	}},
	{"xterm", func(c string) []string { return []string{"-geometry", "80x24", "-e", "bash", "-c", c} }},
}

// spawnFunc starts a detached process and returns a channel that receives
// its exit error once it terminates.
type spawnFunc func(name string, args []string) (<-chan error, error)

// Emulators opens the first installed terminal emulator that survives its
// startup window.
type Emulators struct {
	runner runner.Runner
	list   []Emulator
	spawn  spawnFunc
	settle time.Duration
}

// NewEmulators returns an Emulators trying KnownEmulators in order. A
// non-empty preferred name (usually $TERMINAL) is tried first; unknown
// names are invoked as `<name> -e bash -c <command>`.
func NewEmulators(r runner.Runner, preferred string) *Emulators {
	return &Emulators{
		runner: r,
		list:   orderEmulators(preferred),
		spawn:  spawnDetached,
		settle: 100 * time.Millisecond,
	}
}

func orderEmulators(preferred string) []Emulator {
	list := make([]Emulator, 0, len(KnownEmulators)+1)
	if preferred == "" {
		return append(list, KnownEmulators...)
	}

	head := Emulator{
		Name: preferred,
		Args: func(c string) []string { return []string{"-e", "bash", "-c", c} },
	}
	for _, e := range KnownEmulators {
		if e.Name == preferred {
			head = e
		}
	}
	list = append(list, head)
	for _, e := range KnownEmulators {
		if e.Name != preferred {
			list = append(list, e)
		}
	}
	return list
}

// Run implements Terminal. An emulator counts as started when it is still
// running after the settle window, or when it already exited successfully
// (emulators that hand the window to a server process).
func (e *Emulators) Run(command string) (string, error) {
	var lastErr error

	for _, em := range e.list {
		if !runner.CommandAvailable(e.runner, em.Name) {
			continue
		}

		exited, err := e.spawn(em.Name, em.Args(command))
		if err != nil {
			logger.Warn("failed to launch terminal", "terminal", em.Name, "error", err)
			lastErr = fmt.Errorf("failed to launch %s: %w", em.Name, err)
			continue
		}

		select {
		case err := <-exited:
			if err != nil {
				logger.Warn("terminal exited with error", "terminal", em.Name, "error", err)
				lastErr = fmt.Errorf("terminal %s failed to start: %w", em.Name, err)
				continue
			}
		case <-time.After(e.settle):
		}

		logger.Info("opened terminal", "terminal", em.Name, "command", command)
		return em.Name, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", ErrNoTerminal, lastErr)
	}
	return "", ErrNoTerminal
}

func spawnDetached(name string, args []string) (<-chan error, error) {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()
	return exited, nil
}

// InlineTerminal runs the command in the current terminal and blocks until
// it finishes.
type InlineTerminal struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Terminal. A non-zero exit is not an error here; the
// outcome travels through the completion marker.
func (t InlineTerminal) Run(command string) (string, error) {
	cmd := exec.Command("bash", "-c", command)
	cmd.Stdin = orDefault(t.Stdin, os.Stdin)
	cmd.Stdout = orDefaultWriter(t.Stdout, os.Stdout)
	cmd.Stderr = orDefaultWriter(t.Stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to run install script: %w", err)
		}
	}
	return "inline", nil
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultWriter(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
