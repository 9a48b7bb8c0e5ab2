package pacman

import (
	"errors"
	"os"
	"strings"

	"github.com/blackwell-systems/pacpilot/internal/apperr"
)

// DefaultLockPath is pacman's database lock file.
const DefaultLockPath = "/var/lib/pacman/db.lck"

// ErrLockMissing is returned by RemoveLock when there is no lock file.
var ErrLockMissing = errors.New("the database lock file does not exist")

// IsLockError reports whether an error message comes from a held or stale
// package database lock.
func IsLockError(message string) bool {
	return strings.Contains(strings.ToLower(message), "unable to lock database") ||
		strings.Contains(message, "db.lck")
}

// RemoveLock deletes the lock file at path. A missing lock file is reported
// as ErrLockMissing rather than treated as already resolved.
func RemoveLock(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return apperr.IOFailure(ErrLockMissing, "cannot remove %s", path)
		}
		return apperr.IOFailure(err, "failed to inspect database lock")
	}

	if err := os.Remove(path); err != nil {
		return apperr.IOFailure(err, "failed to remove database lock")
	}
	return nil
}
