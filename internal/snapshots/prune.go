package snapshots

import (
	"strings"

	"github.com/blackwell-systems/pacpilot/internal/apperr"
	"github.com/blackwell-systems/pacpilot/internal/config"
	"github.com/blackwell-systems/pacpilot/internal/logger"
)

// Plan is the outcome of applying the retention policy to the inventory,
// before anything is deleted.
type Plan struct {
	Comment   string
	Protected string
	// Matching holds every entry with Comment, oldest first.
	Matching []Snapshot
	// Delete holds the entries to remove, oldest first. The protected
	// entry never appears here.
	Delete []Snapshot
}

// Plan computes which snapshots tagged with comment exceed the retention
// policy. With a bounded retention period only entries taken on or after
// the cutoff, plus entries whose name does not parse, are candidates;
// older entries are left alone. Of the candidates, all but the newest
// SnapshotCount are deleted, oldest first. protect is never selected.
func (m *Manager) Plan(comment string, s config.Settings, protect string) (*Plan, error) {
	snaps, err := m.List()
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Comment:   comment,
		Protected: strings.TrimSpace(protect),
		Matching:  withComment(snaps, comment),
	}

	candidates := plan.Matching
	if cutoff, bounded := s.RetentionPeriod.Cutoff(m.now()); bounded {
		candidates = nil
		for _, snap := range plan.Matching {
			if t, ok := snap.Time(); !ok || !t.Before(cutoff) {
				candidates = append(candidates, snap)
			}
		}
	}

	keep := s.SnapshotCount
	if keep < 0 {
		keep = 0
	}
	if len(candidates) <= keep {
		return plan, nil
	}

	for _, snap := range candidates[:len(candidates)-keep] {
		if snap.Name == plan.Protected {
			continue
		}
		plan.Delete = append(plan.Delete, snap)
	}

	return plan, nil
}

// Apply deletes the planned snapshots one at a time. The first failure
// aborts the rest; entries already deleted stay deleted. onDelete, if not
// nil, is called after each successful deletion.
func (m *Manager) Apply(plan *Plan, onDelete func(Snapshot)) error {
	for _, snap := range plan.Delete {
		if snap.Name == plan.Protected {
			continue
		}

		res, err := m.run("--delete", "--snapshot", snap.Name, "--yes")
		if err != nil {
			return apperr.Wrap(err, "failed to delete snapshot %s", snap.Name)
		}
		if !res.Success() {
			return apperr.CommandFailed("failed to delete snapshot %s: %s", snap.Name, strings.TrimSpace(res.Stderr))
		}

		logger.Info("deleted snapshot", "name", snap.Name)
		if onDelete != nil {
			onDelete(snap)
		}
	}
	return nil
}

// Prune plans and applies the retention policy in one step and returns the
// names that were deleted.
func (m *Manager) Prune(comment string, s config.Settings, protect string) ([]string, error) {
	plan, err := m.Plan(comment, s, protect)
	if err != nil {
		return nil, err
	}

	var deleted []string
	err = m.Apply(plan, func(snap Snapshot) {
		deleted = append(deleted, snap.Name)
	})
	return deleted, err
}
