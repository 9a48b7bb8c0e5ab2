package snapshots

import (
	"context"
	"sync"
	"time"

	"github.com/blackwell-systems/pacpilot/internal/config"
)

// Outcome is the result of a background create-and-prune run.
type Outcome struct {
	Snapshot string
	Deleted  []string
	Err      error
}

// Task runs snapshot creation followed by pruning in the background and
// delivers a single Outcome.
type Task struct {
	results chan Outcome

	mu        sync.Mutex
	delivered bool
}

// Start launches the task. Pruning protects the snapshot just created and
// only runs after creation succeeded. If ctx is cancelled before pruning
// starts, pruning is skipped and the outcome carries ctx.Err(). A running
// timeshift call is never interrupted.
func Start(ctx context.Context, m *Manager, comment string, s config.Settings, onDelete func(Snapshot)) *Task {
	t := &Task{results: make(chan Outcome, 1)}

	go func() {
		var out Outcome
		out.Snapshot, out.Err = m.Create(comment)
		if out.Err == nil {
			if err := ctx.Err(); err != nil {
				out.Err = err
			} else {
				plan, err := m.Plan(comment, s, out.Snapshot)
				if err == nil {
					err = m.Apply(plan, func(snap Snapshot) {
						out.Deleted = append(out.Deleted, snap.Name)
						if onDelete != nil {
							onDelete(snap)
						}
					})
				}
				out.Err = err
			}
		}
		t.results <- out
	}()

	return t
}

// Poll returns the outcome without blocking. It reports true exactly once,
// on the first call after the task finished.
func (t *Task) Poll() (Outcome, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.delivered {
		return Outcome{}, false
	}

	select {
	case out := <-t.results:
		t.delivered = true
		return out, true
	default:
		return Outcome{}, false
	}
}

// Wait polls every interval until the outcome arrives or ctx is done. tick,
// if not nil, runs on every empty poll.
func (t *Task) Wait(ctx context.Context, interval time.Duration, tick func()) (Outcome, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if out, ok := t.Poll(); ok {
			return out, nil
		}
		if tick != nil {
			tick()
		}

		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
