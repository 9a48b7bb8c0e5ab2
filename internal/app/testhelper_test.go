package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/pacpilot/internal/install"
	"github.com/blackwell-systems/pacpilot/internal/runner"
	"github.com/blackwell-systems/pacpilot/internal/snapshots"
	"github.com/blackwell-systems/pacpilot/internal/store"
)

var okResult = runner.Result{}

type stubPrivileges struct {
	root bool
	user string
}

func (s stubPrivileges) IsRoot() bool { return s.root }

func (s stubPrivileges) OriginalUser() (string, bool) { return s.user, s.user != "" }

func (s stubPrivileges) RestoreDesktopSession() (string, error) { return "", nil }

// markerTerminal stands in for a terminal window: instead of running the
// script it writes the marker with a fixed exit code.
type markerTerminal struct {
	mu       sync.Mutex
	marker   string
	code     int
	err      error
	commands []string
}

func (m *markerTerminal) Run(command string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, command)
	if m.err != nil {
		return "", m.err
	}
	if err := os.WriteFile(m.marker, []byte(fmt.Sprintf("%d\n", m.code)), 0644); err != nil {
		return "", err
	}
	return "test-terminal", nil
}

func (m *markerTerminal) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

type testEnv struct {
	dir      string
	fake     *runner.Fake
	users    stubPrivileges
	terminal *markerTerminal
	paths    install.Paths
}

// newTestEnv points every command seam at fakes rooted in a temp dir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:   dir,
		fake:  runner.NewFake(),
		users: stubPrivileges{user: "alice"},
		paths: install.PathsIn(dir),
	}
	env.fake.Missing = &runner.Result{ExitCode: 1}
	env.terminal = &markerTerminal{marker: env.paths.Marker}

	oldRunner, oldPrivileges, oldTerminal := newRunner, newPrivileges, newTerminal
	oldPaths, oldLock, oldInterval := installPaths, lockPath, pollInterval
	t.Cleanup(func() {
		newRunner, newPrivileges, newTerminal = oldRunner, oldPrivileges, oldTerminal
		installPaths, lockPath, pollInterval = oldPaths, oldLock, oldInterval
	})

	newRunner = func() runner.Runner { return env.fake }
	newPrivileges = func(runner.Runner) privileges { return env.users }
	newTerminal = func(runner.Runner, bool) install.Terminal { return env.terminal }
	installPaths = func() install.Paths { return env.paths }
	lockPath = filepath.Join(dir, "db.lck")
	pollInterval = 5 * time.Millisecond

	return env
}

func (e *testEnv) dbPath() string { return filepath.Join(e.dir, "history.db") }

func (e *testEnv) settingsPath() string { return filepath.Join(e.dir, "settings.yaml") }

func (e *testEnv) writeSettings(t *testing.T, doc string) {
	t.Helper()
	if err := os.WriteFile(e.settingsPath(), []byte(doc), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}
}

// execute runs the root command with args and returns stdout. Spinner and
// progress lines go to a separate stderr buffer.
func (e *testEnv) execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(append([]string{
		"--db", e.dbPath(),
		"--config", e.settingsPath(),
		"--log-level", "error",
	}, args...))
	defer RootCmd.SetArgs(nil)

	err := RootCmd.Execute()
	return stdout.String(), err
}

func (e *testEnv) openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(e.dbPath())
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// officialUpdates registers a pacman check returning one linux update that
// grows by 1.5 MiB.
func (e *testEnv) officialUpdates() {
	e.fake.
		On(okResult, "sudo", "pacman", "-Sy").
		On(runner.Result{Stdout: "linux 6.9.0.arch1-1 -> 6.9.1.arch1-1\n"}, "pacman", "-Qu").
		On(runner.Result{Stdout: "Repository : core\nName : linux\nDescription : The Linux kernel and modules\nInstalled Size : 131.50 MiB\n"}, "pacman", "-Si", "linux").
		On(runner.Result{Stdout: "Name : linux\nInstalled Size : 130.00 MiB\n"}, "pacman", "-Qi", "linux")
}

// aurUpdates enables yay with one pending AUR update.
func (e *testEnv) aurUpdates(t *testing.T) {
	e.writeSettings(t, "enable_aur_support: true\n")
	e.fake.
		On(okResult, "which", "yay").
		On(runner.Result{Stdout: "spotify 1.2.0-1 -> 1.2.1-1\n"}, "yay", "-Qua")
}

// timeshiftListing renders a `timeshift --list` table.
func timeshiftListing(snaps ...snapshots.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Device : /dev/sda2\nStatus : OK\n%d snapshots, 120.3 GB free\n\n", len(snaps))
	b.WriteString("Num     Name                 Tags  Description\n")
	b.WriteString("------------------------------------------------------------------------------\n")
	for i, s := range snaps {
		fmt.Fprintf(&b, "%-4d >  %s  O     %s\n", i, s.Name, s.Comment)
	}
	return b.String()
}

func preUpdate(names ...string) []snapshots.Snapshot {
	snaps := make([]snapshots.Snapshot, len(names))
	for i, n := range names {
		snaps[i] = snapshots.Snapshot{Name: n, Comment: snapshots.DefaultComment}
	}
	return snaps
}

// resetFlags restores command flag variables, which cobra keeps between
// executions.
func resetFlags() {
	checkNoAUR, checkJSON = false, false
	installAll, installSnapshot, installNoSnapshot, installInline, installYes = false, false, false, false, false
	createComment, pruneComment, listComment = snapshots.DefaultComment, snapshots.DefaultComment, ""
	pruneDryRun, pruneYes = false, false
	unlockYes = false
	historyLimit = 20
	logLevel = "warn"
}
