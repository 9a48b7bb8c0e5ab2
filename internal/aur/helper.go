// Package aur discovers and installs AUR updates through whichever AUR
// helper program is configured or installed.
package aur

import (
	"github.com/blackwell-systems/pacpilot/internal/config"
	"github.com/blackwell-systems/pacpilot/internal/runner"
)

// Helper identifies one supported AUR helper program.
type Helper int

const (
	// None means no helper is selected.
	None Helper = iota
	Yay
	Paru
	Trizen
	Pikaur
	Pamac
)

// Priority is the order in which installed helpers are auto-detected.
var Priority = []Helper{Yay, Paru, Trizen, Pikaur, Pamac}

// Command returns the executable name.
func (h Helper) Command() string {
	switch h {
	case Yay:
		return "yay"
	case Paru:
		return "paru"
	case Trizen:
		return "trizen"
	case Pikaur:
		return "pikaur"
	case Pamac:
		return "pamac"
	default:
		return ""
	}
}

func (h Helper) String() string {
	if h == None {
		return "none"
	}
	return h.Command()
}

// UpdateCheckArgs returns the arguments that list pending AUR updates.
func (h Helper) UpdateCheckArgs() []string {
	if h == Pamac {
		return []string{"list", "-u", "-a"}
	}
	return []string{"-Qua"}
}

// InstallArgs returns the arguments placed before package names to install.
func (h Helper) InstallArgs() []string {
	if h == Pamac {
		return []string{"install"}
	}
	return []string{"-S"}
}

// SupportsNoConfirm reports whether the helper accepts --noconfirm.
func (h Helper) SupportsNoConfirm() bool {
	return h != Pamac && h != None
}

// FromCommand maps an executable name to its Helper.
func FromCommand(name string) (Helper, bool) {
	for _, h := range Priority {
		if h.Command() == name {
			return h, true
		}
	}
	return None, false
}

// Select picks the helper to use. It returns false when AUR support is
// disabled or no known helper is installed. A configured preference wins
// when that helper is installed; otherwise the first installed helper in
// Priority order is used.
func Select(s config.Settings, r runner.Runner) (Helper, bool) {
	if !s.EnableAUR {
		return None, false
	}

	if s.PreferredHelper != "" {
		if h, ok := FromCommand(s.PreferredHelper); ok && runner.CommandAvailable(r, h.Command()) {
			return h, true
		}
	}

	for _, h := range Priority {
		if runner.CommandAvailable(r, h.Command()) {
			return h, true
		}
	}
	return None, false
}

// Available returns every installed helper in Priority order.
func Available(r runner.Runner) []Helper {
	var found []Helper
	for _, h := range Priority {
		if runner.CommandAvailable(r, h.Command()) {
			found = append(found, h)
		}
	}
	return found
}
