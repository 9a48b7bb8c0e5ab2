// Package snapshots creates and prunes Timeshift system snapshots taken
// before updates, and parses the two listing formats Timeshift prints.
package snapshots

import (
	"time"

	"github.com/blackwell-systems/pacpilot/internal/runner"
)

// DefaultComment tags snapshots created by pacpilot so pruning only ever
// touches its own entries.
const DefaultComment = "pacpilot pre-update"

// Snapshot is one entry of the Timeshift inventory.
type Snapshot struct {
	Name    string
	Comment string
}

// Time parses the timestamp encoded in the snapshot name.
func (s Snapshot) Time() (time.Time, bool) {
	t, err := ParseTimestamp(s.Name)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Manager drives the timeshift command line.
type Manager struct {
	runner  runner.Runner
	command []string
	now     func() time.Time
}

// New creates a Manager. When sudo is set every timeshift invocation is
// prefixed with sudo, for callers that are not already root.
func New(r runner.Runner, sudo bool) *Manager {
	command := []string{"timeshift"}
	if sudo {
		command = append([]string{"sudo"}, command...)
	}
	return &Manager{
		runner:  r,
		command: command,
		now:     time.Now,
	}
}

func (m *Manager) run(args ...string) (*runner.Result, error) {
	argv := append(append([]string{}, m.command[1:]...), args...)
	return m.runner.Run(m.command[0], argv...)
}
