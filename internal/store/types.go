package store

import "time"

// Outcome is the final state of an install run.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	// OutcomeAborted marks runs that never reached the terminal, e.g. a
	// failed snapshot.
	OutcomeAborted Outcome = "aborted"
)

// SnapshotAction is what happened to a snapshot.
type SnapshotAction string

const (
	SnapshotCreated SnapshotAction = "created"
	SnapshotDeleted SnapshotAction = "deleted"
)

// UpdateCheck records one `check` run.
type UpdateCheck struct {
	ID            int64
	CheckedAt     time.Time
	OfficialCount int
	AURCount      int
	TotalDelta    int64
	AURError      string
}

// InstallRun records one install launched through the terminal.
type InstallRun struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  *time.Time
	Packages    []string
	AURPackages []string
	Snapshot    string
	Terminal    string
	Outcome     Outcome
}

// SnapshotEvent records a snapshot creation or deletion.
type SnapshotEvent struct {
	ID         int64
	OccurredAt time.Time
	Name       string
	Action     SnapshotAction
	Comment    string
}

// Entry is one line of the combined history.
type Entry struct {
	At      time.Time
	Kind    string
	Summary string
}
