package pacman

import "errors"

// ErrNoPackages is returned when an install is requested for nothing.
var ErrNoPackages = errors.New("no packages selected for installation")

// InstallCommand returns the privileged argument vector that installs the
// named repository packages.
func InstallCommand(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, ErrNoPackages
	}
	argv := []string{"sudo", "pacman", "-S"}
	return append(argv, names...), nil
}
