package aur

import (
	"bufio"
	"errors"
	"strings"

	"github.com/blackwell-systems/pacpilot/internal/apperr"
	"github.com/blackwell-systems/pacpilot/internal/logger"
	"github.com/blackwell-systems/pacpilot/internal/runner"
	"github.com/blackwell-systems/pacpilot/internal/updates"
)

var (
	// ErrNoHelper is returned when an AUR install is requested without an
	// available helper.
	ErrNoHelper = errors.New("no AUR helper available for installation")
	// ErrNoPackages is returned when an install is requested for nothing.
	ErrNoPackages = errors.New("no AUR packages selected for installation")
)

// UserResolver reports the privilege context used to de-escalate builds.
type UserResolver interface {
	IsRoot() bool
	OriginalUser() (string, bool)
}

// Adapter queries and installs AUR packages through one helper.
type Adapter struct {
	runner runner.Runner
	helper Helper
	users  UserResolver

	// NoConfirm appends --noconfirm to installs when the helper supports it.
	NoConfirm bool
}

// NewAdapter creates an Adapter for helper. Passing None yields an adapter
// that reports no updates and refuses installs.
func NewAdapter(r runner.Runner, helper Helper, users UserResolver) *Adapter {
	return &Adapter{runner: r, helper: helper, users: users}
}

// Helper returns the helper in use.
func (a *Adapter) Helper() Helper {
	return a.helper
}

// CollectUpdates lists pending AUR updates. Without a helper it returns an
// empty list.
func (a *Adapter) CollectUpdates() ([]updates.Record, error) {
	if a.helper == None {
		return []updates.Record{}, nil
	}

	cmd := a.helper.Command()
	res, err := a.runner.Run(cmd, a.helper.UpdateCheckArgs()...)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to run %s for AUR updates", cmd)
	}

	if !res.Success() {
		if nothingToDo(res) {
			return []updates.Record{}, nil
		}
		return nil, apperr.CommandFailed("AUR helper %s failed: %s", cmd, strings.TrimSpace(res.Stderr))
	}

	return parseUpdates(res.Stdout, a.helper), nil
}

func nothingToDo(res *runner.Result) bool {
	stderr := strings.ToLower(res.Stderr)
	stdout := strings.ToLower(res.Stdout)
	for _, marker := range []string{"nothing to do", "no packages"} {
		if strings.Contains(stderr, marker) || strings.Contains(stdout, marker) {
			return true
		}
	}
	return strings.TrimSpace(res.Stdout) == ""
}

// parseUpdates parses helper output. Pamac prints bare "name current new"
// columns; every other helper prints "name current -> new".
func parseUpdates(output string, helper Helper) []updates.Record {
	records := []updates.Record{}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var (
			r  updates.Record
			ok bool
		)
		if helper == Pamac {
			r, ok = parseBareLine(line)
		} else {
			r, ok = parseArrowLine(line)
		}
		if !ok {
			logger.Debug("skipping AUR helper line", "helper", helper.Command(), "line", line)
			continue
		}
		records = append(records, r)
	}

	return records
}

func parseArrowLine(line string) (updates.Record, bool) {
	parts := strings.Fields(line)
	if len(parts) < 4 || parts[len(parts)-2] != "->" {
		return updates.Record{}, false
	}
	return newRecord(parts[0], parts[1], parts[len(parts)-1]), true
}

func parseBareLine(line string) (updates.Record, bool) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return updates.Record{}, false
	}
	next := parts[2]
	if next == "->" {
		if len(parts) < 4 {
			return updates.Record{}, false
		}
		next = parts[3]
	}
	return newRecord(parts[0], parts[1], next), true
}

func newRecord(name, current, next string) updates.Record {
	return updates.Record{
		Repository:     updates.AURRepository,
		Name:           name,
		Description:    "AUR package: " + name,
		CurrentVersion: current,
		NewVersion:     next,
		SizeDelta:      0,
		Selected:       true,
	}
}

// InstallCommand returns the argument vector that installs names with the
// helper. When running as root the command is wrapped in `sudo -u <user>`
// for the resolved desktop user, since helpers refuse to build as root. If
// no desktop user resolves, the helper is invoked directly.
func (a *Adapter) InstallCommand(names []string) ([]string, error) {
	if a.helper == None {
		return nil, ErrNoHelper
	}
	if len(names) == 0 {
		return nil, ErrNoPackages
	}

	argv := []string{a.helper.Command()}
	argv = append(argv, a.helper.InstallArgs()...)
	if a.NoConfirm && a.helper.SupportsNoConfirm() {
		argv = append(argv, "--noconfirm")
	}
	argv = append(argv, names...)

	if a.users == nil || !a.users.IsRoot() {
		return argv, nil
	}

	user, ok := a.users.OriginalUser()
	if !ok {
		logger.Warn("running as root but no desktop user found; invoking AUR helper directly", "helper", a.helper.Command())
		return argv, nil
	}

	return append([]string{"sudo", "-u", user}, argv...), nil
}
