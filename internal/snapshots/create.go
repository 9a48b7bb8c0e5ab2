package snapshots

import (
	"errors"
	"sort"
	"strings"

	"github.com/blackwell-systems/pacpilot/internal/apperr"
)

// ErrNotFound is returned when a freshly created snapshot cannot be found in
// the inventory.
var ErrNotFound = errors.New("created snapshot not found in list")

// Create takes an on-demand snapshot tagged with comment and returns its
// name, identified as the newest inventory entry carrying that comment.
func (m *Manager) Create(comment string) (string, error) {
	res, err := m.run("--create", "--tags", "O", "--comments", comment, "--yes")
	if err != nil {
		return "", apperr.Wrap(err, "failed to run timeshift --create")
	}
	if !res.Success() {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(res.Stdout)
		}
		return "", apperr.CommandFailed("timeshift snapshot create failed: %s", detail)
	}

	snaps, err := m.List()
	if err != nil {
		return "", err
	}

	matching := withComment(snaps, comment)
	if len(matching) == 0 {
		return "", apperr.Wrap(ErrNotFound, "no snapshot with comment %q after creation", comment)
	}

	return matching[len(matching)-1].Name, nil
}

// withComment returns the entries whose trimmed comment equals comment,
// sorted ascending by name.
func withComment(snaps []Snapshot, comment string) []Snapshot {
	comment = strings.TrimSpace(comment)
	var out []Snapshot
	for _, s := range snaps {
		if strings.TrimSpace(s.Comment) == comment {
			out = append(out, Snapshot{Name: strings.TrimSpace(s.Name), Comment: comment})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
