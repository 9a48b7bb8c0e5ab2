package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const timeLayout = time.RFC3339Nano

// Update check operations

// InsertUpdateCheck records a check run and returns its ID.
func (s *Store) InsertUpdateCheck(c *UpdateCheck) (int64, error) {
	query := `
		INSERT INTO update_checks (checked_at, official_count, aur_count, total_delta, aur_error)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		c.CheckedAt.Format(timeLayout),
		c.OfficialCount,
		c.AURCount,
		c.TotalDelta,
		nullString(c.AURError),
	)
	if err != nil {
		return 0, wrap(err, "failed to insert update check")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get update check ID: %w", err)
	}
	return id, nil
}

// ListUpdateChecks returns up to limit checks, newest first.
func (s *Store) ListUpdateChecks(limit int) ([]*UpdateCheck, error) {
	query := `
		SELECT id, checked_at, official_count, aur_count, total_delta, aur_error
		FROM update_checks
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, wrap(err, "failed to list update checks")
	}
	defer rows.Close()

	var checks []*UpdateCheck
	for rows.Next() {
		var (
			c         UpdateCheck
			checkedAt string
			aurErr    sql.NullString
		)
		if err := rows.Scan(&c.ID, &checkedAt, &c.OfficialCount, &c.AURCount, &c.TotalDelta, &aurErr); err != nil {
			return nil, fmt.Errorf("failed to scan update check row: %w", err)
		}
		if c.CheckedAt, err = time.Parse(timeLayout, checkedAt); err != nil {
			return nil, fmt.Errorf("failed to parse checked_at for check %d: %w", c.ID, err)
		}
		c.AURError = aurErr.String
		checks = append(checks, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating update checks: %w", err)
	}
	return checks, nil
}

// Install run operations

// StartInstallRun records a launched install as pending and returns its ID.
func (s *Store) StartInstallRun(r *InstallRun) (int64, error) {
	official, err := json.Marshal(orEmpty(r.Packages))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal packages: %w", err)
	}
	aur, err := json.Marshal(orEmpty(r.AURPackages))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal AUR packages: %w", err)
	}

	outcome := r.Outcome
	if outcome == "" {
		outcome = OutcomePending
	}

	query := `
		INSERT INTO install_runs (started_at, packages, aur_packages, snapshot, terminal, outcome)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		r.StartedAt.Format(timeLayout),
		string(official),
		string(aur),
		nullString(r.Snapshot),
		nullString(r.Terminal),
		string(outcome),
	)
	if err != nil {
		return 0, wrap(err, "failed to insert install run")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get install run ID: %w", err)
	}
	return id, nil
}

// FinishInstallRun stores the final outcome of a run.
func (s *Store) FinishInstallRun(id int64, outcome Outcome, finishedAt time.Time) error {
	query := `UPDATE install_runs SET outcome = ?, finished_at = ? WHERE id = ?`

	result, err := s.db.Exec(query, string(outcome), finishedAt.Format(timeLayout), id)
	if err != nil {
		return wrap(err, "failed to update install run %d", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check install run %d update: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("install run %d not found", id)
	}
	return nil
}

// GetInstallRun retrieves a run by ID.
func (s *Store) GetInstallRun(id int64) (*InstallRun, error) {
	query := `
		SELECT id, started_at, finished_at, packages, aur_packages, snapshot, terminal, outcome
		FROM install_runs
		WHERE id = ?
	`

	r, err := scanInstallRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("install run %d not found", id)
	}
	if err != nil {
		return nil, wrap(err, "failed to get install run %d", id)
	}
	return r, nil
}

// ListInstallRuns returns up to limit runs, newest first.
func (s *Store) ListInstallRuns(limit int) ([]*InstallRun, error) {
	query := `
		SELECT id, started_at, finished_at, packages, aur_packages, snapshot, terminal, outcome
		FROM install_runs
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, wrap(err, "failed to list install runs")
	}
	defer rows.Close()

	var runs []*InstallRun
	for rows.Next() {
		r, err := scanInstallRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan install run row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating install runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInstallRun(row rowScanner) (*InstallRun, error) {
	var (
		r          InstallRun
		startedAt  string
		finishedAt sql.NullString
		official   string
		aur        string
		snapshot   sql.NullString
		terminal   sql.NullString
		outcome    string
	)

	if err := row.Scan(&r.ID, &startedAt, &finishedAt, &official, &aur, &snapshot, &terminal, &outcome); err != nil {
		return nil, err
	}

	var err error
	if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %d: %w", r.ID, err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at for run %d: %w", r.ID, err)
		}
		r.FinishedAt = &t
	}
	if err := json.Unmarshal([]byte(official), &r.Packages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal packages for run %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(aur), &r.AURPackages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AUR packages for run %d: %w", r.ID, err)
	}
	r.Snapshot = snapshot.String
	r.Terminal = terminal.String
	r.Outcome = Outcome(outcome)

	return &r, nil
}

// Snapshot event operations

// InsertSnapshotEvent records a snapshot creation or deletion.
func (s *Store) InsertSnapshotEvent(e *SnapshotEvent) error {
	query := `
		INSERT INTO snapshot_events (occurred_at, name, action, comment)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		e.OccurredAt.Format(timeLayout),
		e.Name,
		string(e.Action),
		nullString(e.Comment),
	)
	if err != nil {
		return wrap(err, "failed to insert snapshot event for %s", e.Name)
	}
	return nil
}

// ListSnapshotEvents returns up to limit events, newest first.
func (s *Store) ListSnapshotEvents(limit int) ([]*SnapshotEvent, error) {
	query := `
		SELECT id, occurred_at, name, action, comment
		FROM snapshot_events
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, wrap(err, "failed to list snapshot events")
	}
	defer rows.Close()

	var events []*SnapshotEvent
	for rows.Next() {
		var (
			e          SnapshotEvent
			occurredAt string
			action     string
			comment    sql.NullString
		)
		if err := rows.Scan(&e.ID, &occurredAt, &e.Name, &action, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot event row: %w", err)
		}
		if e.OccurredAt, err = time.Parse(timeLayout, occurredAt); err != nil {
			return nil, fmt.Errorf("failed to parse occurred_at for event %d: %w", e.ID, err)
		}
		e.Action = SnapshotAction(action)
		e.Comment = comment.String
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot events: %w", err)
	}
	return events, nil
}

// History merges the most recent checks, installs, and snapshot events into
// one list, newest first, truncated to limit.
func (s *Store) History(limit int) ([]Entry, error) {
	checks, err := s.ListUpdateChecks(limit)
	if err != nil {
		return nil, err
	}
	runs, err := s.ListInstallRuns(limit)
	if err != nil {
		return nil, err
	}
	events, err := s.ListSnapshotEvents(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(checks)+len(runs)+len(events))
	for _, c := range checks {
		summary := fmt.Sprintf("%d official, %d AUR", c.OfficialCount, c.AURCount)
		if c.AURError != "" {
			summary += " (AUR check failed)"
		}
		entries = append(entries, Entry{At: c.CheckedAt, Kind: "check", Summary: summary})
	}
	for _, r := range runs {
		names := append(append([]string{}, r.Packages...), r.AURPackages...)
		summary := fmt.Sprintf("%s: %s", r.Outcome, strings.Join(names, " "))
		if r.Snapshot != "" {
			summary += " [snapshot " + r.Snapshot + "]"
		}
		entries = append(entries, Entry{At: r.StartedAt, Kind: "install", Summary: summary})
	}
	for _, e := range events {
		entries = append(entries, Entry{At: e.OccurredAt, Kind: "snapshot", Summary: fmt.Sprintf("%s %s", e.Action, e.Name)})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At.After(entries[j].At)
	})
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
