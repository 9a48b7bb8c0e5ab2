package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pacpilot/internal/config"
	"github.com/blackwell-systems/pacpilot/internal/install"
	"github.com/blackwell-systems/pacpilot/internal/logger"
	"github.com/blackwell-systems/pacpilot/internal/output"
	"github.com/blackwell-systems/pacpilot/internal/pacman"
	"github.com/blackwell-systems/pacpilot/internal/privilege"
	"github.com/blackwell-systems/pacpilot/internal/runner"
	"github.com/blackwell-systems/pacpilot/internal/store"
)

// privileges is the part of privilege.Resolver the commands use.
type privileges interface {
	IsRoot() bool
	OriginalUser() (string, bool)
	RestoreDesktopSession() (string, error)
}

// Seams replaced by tests.
var (
	newRunner = func() runner.Runner { return runner.Exec{} }

	newPrivileges = func(r runner.Runner) privileges { return privilege.NewResolver(r) }

	newTerminal = func(r runner.Runner, inline bool) install.Terminal {
		if inline {
			return install.InlineTerminal{}
		}
		return install.NewEmulators(r, os.Getenv("TERMINAL"))
	}

	installPaths = install.DefaultPaths
	lockPath     = pacman.DefaultLockPath
	pollInterval = 50 * time.Millisecond
	now          = time.Now
)

// session bundles what a command needs: the runner, the privilege context,
// the loaded settings, and the history store. history is nil when the
// database could not be opened; recording is skipped then.
type session struct {
	out      io.Writer
	in       io.Reader
	runner   runner.Runner
	users    privileges
	settings *config.Context
	history  *store.Store
}

// openSession restores the desktop environment when running elevated, then
// loads settings and opens the history database. Only an indeterminate
// settings path is fatal.
func openSession(cmd *cobra.Command) (*session, error) {
	r := newRunner()
	users := newPrivileges(r)

	if user, err := users.RestoreDesktopSession(); err != nil {
		logger.Warn("could not restore desktop session", "error", err)
	} else if user != "" {
		logger.Debug("restored desktop session", "user", user)
	}

	path, err := getSettingsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings path: %w", err)
	}

	settings, err := config.Load(path)
	if err != nil {
		logger.Warn("failed to load settings, using defaults", "path", path, "error", err)
	}

	sess := &session{
		out:      cmd.OutOrStdout(),
		in:       cmd.InOrStdin(),
		runner:   r,
		users:    users,
		settings: config.NewContext(path, settings),
	}

	if p, err := getDBPath(); err != nil {
		logger.Warn("history disabled", "error", err)
	} else if sess.history, err = store.Open(p); err != nil {
		logger.Warn("history disabled", "path", p, "error", err)
	}

	return sess, nil
}

func (s *session) Close() {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			logger.Debug("failed to close history", "error", err)
		}
	}
}

// record runs fn against the history store when one is open. Failures are
// logged; history never fails a command.
func (s *session) record(what string, fn func(*store.Store) error) {
	if s.history == nil {
		return
	}
	if err := fn(s.history); err != nil {
		logger.Warn("failed to record history", "what", what, "error", err)
	}
}

// confirm asks a yes/no question on the session's streams. Anything other
// than y or yes is a no.
func (s *session) confirm(question string) bool {
	fmt.Fprintf(s.out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(s.in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(s.out)
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// runWithSpinner runs fn in the background, animating a spinner until it
// returns.
func runWithSpinner(w io.Writer, message string, fn func() error) error {
	spinner := output.NewSpinner(w, message)
	done := make(chan error, 1)
	go func() { done <- fn() }()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			spinner.Stop("")
			return err
		case <-ticker.C:
			spinner.Tick()
		}
	}
}
