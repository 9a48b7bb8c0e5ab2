package snapshots

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/blackwell-systems/pacpilot/internal/apperr"
)

const timestampLayout = "2006-01-02_15-04-05"

var (
	nameRe    = regexp.MustCompile(`[0-9]{4}-[0-9]{2}-[0-9]{2}_[0-9]{2}-[0-9]{2}-[0-9]{2}`)
	tableRe   = regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]+(?:>[ \t]+)?([0-9]{4}-[0-9]{2}-[0-9]{2}_[0-9]{2}-[0-9]{2}-[0-9]{2})[ \t]+\S+(?:[ \t]+(.*\S))?[ \t]*\r?$`)
	verboseRe = regexp.MustCompile(`^\s*Snapshot\s*:\s*([0-9]{4}-[0-9]{2}-[0-9]{2}_[0-9]{2}-[0-9]{2}-[0-9]{2})\s*$`)
	commentRe = regexp.MustCompile(`^\s*Comments\s*:\s*(.*)\s*$`)
)

// ParseTimestamp extracts the YYYY-MM-DD_HH-MM-SS timestamp from a snapshot
// name and interprets it in local time. Out-of-range calendar values are
// rejected.
func ParseTimestamp(name string) (time.Time, error) {
	match := nameRe.FindString(name)
	if match == "" {
		return time.Time{}, fmt.Errorf("could not parse snapshot timestamp from name: %s", name)
	}
	t, err := time.ParseInLocation(timestampLayout, match, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp in snapshot name %s: %w", name, err)
	}
	return t, nil
}

// List returns the snapshot inventory. The tabular `timeshift --list`
// output is tried first; only when it yields no entries is
// `timeshift --list --verbose` consulted.
func (m *Manager) List() ([]Snapshot, error) {
	res, err := m.run("--list")
	if err != nil {
		return nil, apperr.Wrap(err, "failed to run timeshift --list")
	}
	if !res.Success() {
		return nil, apperr.CommandFailed("timeshift --list failed: %s", strings.TrimSpace(res.Stderr))
	}

	if snaps := parseTable(res.Stdout); len(snaps) > 0 {
		return snaps, nil
	}

	res, err = m.run("--list", "--verbose")
	if err != nil {
		return nil, apperr.Wrap(err, "failed to run timeshift --list --verbose")
	}
	if !res.Success() {
		return nil, apperr.CommandFailed("timeshift --list --verbose failed: %s", strings.TrimSpace(res.Stderr))
	}

	return parseVerbose(res.Stdout), nil
}

func parseTable(output string) []Snapshot {
	var snaps []Snapshot
	for _, m := range tableRe.FindAllStringSubmatch(output, -1) {
		snaps = append(snaps, Snapshot{
			Name:    m[1],
			Comment: strings.TrimSpace(m[2]),
		})
	}
	return snaps
}

// parseVerbose reads sequential "Snapshot :" / "Comments :" blocks. A
// Comments line applies to the most recent Snapshot line.
func parseVerbose(output string) []Snapshot {
	var (
		snaps []Snapshot
		cur   *Snapshot
	)

	for _, line := range strings.Split(output, "\n") {
		if m := verboseRe.FindStringSubmatch(line); m != nil {
			if cur != nil {
				snaps = append(snaps, *cur)
			}
			cur = &Snapshot{Name: m[1]}
			continue
		}
		if m := commentRe.FindStringSubmatch(line); m != nil && cur != nil {
			cur.Comment = strings.TrimSpace(m[1])
		}
	}
	if cur != nil {
		snaps = append(snaps, *cur)
	}

	return snaps
}
