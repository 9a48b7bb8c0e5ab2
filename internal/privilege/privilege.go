// Package privilege works out who the real desktop user is when pacpilot
// runs elevated, so that AUR builds can be de-escalated and the desktop
// session environment can be restored.
package privilege

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/blackwell-systems/pacpilot/internal/logger"
	"github.com/blackwell-systems/pacpilot/internal/runner"
)

// Resolver resolves the original user behind an elevated process.
type Resolver struct {
	runner runner.Runner
	getenv func(string) string
	setenv func(string, string) error
	euid   func() int
}

// NewResolver creates a Resolver reading the process environment.
func NewResolver(r runner.Runner) *Resolver {
	return &Resolver{
		runner: r,
		getenv: os.Getenv,
		setenv: os.Setenv,
		euid:   unix.Geteuid,
	}
}

// IsRoot reports whether the process runs with effective UID 0.
func (r *Resolver) IsRoot() bool {
	return r.euid() == 0
}

// OriginalUser returns the desktop user behind the current process. It
// checks, in order, the sudo invoker, the polkit elevation UID, and the
// active login sessions. The second value is false when nothing resolves;
// callers then proceed as the current user.
func (r *Resolver) OriginalUser() (string, bool) {
	if user := strings.TrimSpace(r.getenv("SUDO_USER")); user != "" && user != "root" {
		return user, true
	}

	if user, ok := r.pkexecUser(); ok {
		return user, true
	}

	if user, ok := r.whoUser(); ok {
		return user, true
	}

	return r.loginctlUser()
}

func (r *Resolver) pkexecUser() (string, bool) {
	raw := strings.TrimSpace(r.getenv("PKEXEC_UID"))
	if raw == "" {
		return "", false
	}
	uid, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || uid == 0 {
		return "", false
	}

	res, err := r.runner.Run("id", "-un", raw)
	if err != nil || !res.Success() {
		logger.Debug("uid lookup failed", "uid", raw, "error", err)
		return "", false
	}
	user := strings.TrimSpace(res.Stdout)
	return user, user != ""
}

// whoUser scans `who` for a non-root user on a graphical display or tty.
func (r *Resolver) whoUser() (string, bool) {
	res, err := r.runner.Run("who")
	if err != nil || !res.Success() {
		logger.Debug("who failed", "error", err)
		return "", false
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		if !strings.Contains(line, ":0") && !strings.Contains(line, "tty") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] != "root" {
			return fields[0], true
		}
	}
	return "", false
}

// loginctlUser scans `loginctl list-sessions` for a non-root user attached
// to a seat or a terminal.
func (r *Resolver) loginctlUser() (string, bool) {
	res, err := r.runner.Run("loginctl", "list-sessions", "--no-legend")
	if err != nil || !res.Success() {
		logger.Debug("loginctl failed", "error", err)
		return "", false
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		// SESSION UID USER [SEAT] [LEADER CLASS] [TTY] ...
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[2] == "root" {
			continue
		}
		for _, f := range fields[3:] {
			if strings.HasPrefix(f, "seat") || strings.HasPrefix(f, "tty") || strings.HasPrefix(f, "pts/") {
				return fields[2], true
			}
		}
	}
	return "", false
}

// DesktopEnvironment returns the session variables of user's desktop
// session: runtime dir, session bus, home, XDG base dirs, and X authority.
func (r *Resolver) DesktopEnvironment(user string) (map[string]string, error) {
	res, err := r.runner.Run("id", "-u", user)
	if err != nil {
		return nil, fmt.Errorf("failed to look up uid of %s: %w", user, err)
	}
	uid := strings.TrimSpace(res.Stdout)
	if !res.Success() || uid == "" {
		return nil, fmt.Errorf("failed to look up uid of %s: %s", user, strings.TrimSpace(res.Stderr))
	}

	home := "/home/" + user
	return map[string]string{
		"XDG_RUNTIME_DIR":          "/run/user/" + uid,
		"DBUS_SESSION_BUS_ADDRESS": "unix:path=/run/user/" + uid + "/bus",
		"HOME":                     home,
		"XDG_CONFIG_HOME":          home + "/.config",
		"XDG_DATA_HOME":            home + "/.local/share",
		"XDG_CACHE_HOME":           home + "/.cache",
		"XAUTHORITY":               home + "/.Xauthority",
	}, nil
}

// RestoreDesktopSession points the environment of a root process without a
// session bus at the original user's desktop session, so that the settings
// path and terminal launches resolve for that user. Only unset variables
// are filled in; HOME is replaced only when it is /root. It returns the
// user whose session was applied, or "" when nothing changed.
func (r *Resolver) RestoreDesktopSession() (string, error) {
	if !r.IsRoot() || r.getenv("DBUS_SESSION_BUS_ADDRESS") != "" {
		return "", nil
	}

	user, ok := r.OriginalUser()
	if !ok {
		return "", nil
	}

	env, err := r.DesktopEnvironment(user)
	if err != nil {
		return "", err
	}

	for _, key := range []string{
		"XDG_RUNTIME_DIR",
		"DBUS_SESSION_BUS_ADDRESS",
		"HOME",
		"XDG_CONFIG_HOME",
		"XDG_DATA_HOME",
		"XDG_CACHE_HOME",
		"XAUTHORITY",
	} {
		current := r.getenv(key)
		if key == "HOME" {
			if current != "/root" && current != "" {
				continue
			}
		} else if current != "" {
			continue
		}
		if err := r.setenv(key, env[key]); err != nil {
			return "", fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return user, nil
}
