package runner

import (
	"fmt"
	"sync"
)

// Fake is a scripted Runner. Responses are keyed by the full command line
// (see CommandLine); every invocation is recorded in order.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	calls     []string

	// Missing is returned for command lines without a registered response.
	// When nil, Run returns an error instead.
	Missing *Result
}

type fakeResponse struct {
	result *Result
	err    error
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{responses: make(map[string][]fakeResponse)}
}

// On registers the result returned for the given command line. Registering
// the same command line more than once queues the results; the last one is
// repeated once the queue is drained.
func (f *Fake) On(result Result, name string, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := CommandLine(name, args...)
	r := result
	f.responses[key] = append(f.responses[key], fakeResponse{result: &r})
	return f
}

// OnError registers a start failure for the given command line.
func (f *Fake) OnError(err error, name string, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := CommandLine(name, args...)
	f.responses[key] = append(f.responses[key], fakeResponse{err: err})
	return f
}

// Run implements Runner.
func (f *Fake) Run(name string, args ...string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := CommandLine(name, args...)
	f.calls = append(f.calls, key)

	queue, ok := f.responses[key]
	if !ok || len(queue) == 0 {
		if f.Missing != nil {
			r := *f.Missing
			return &r, nil
		}
		return nil, fmt.Errorf("runner: no fixture for %q", key)
	}

	resp := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}
	if resp.err != nil {
		return nil, resp.err
	}
	r := *resp.result
	return &r, nil
}

// Calls returns the command lines run so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Called reports whether the given command line was run at least once.
func (f *Fake) Called(name string, args ...string) bool {
	key := CommandLine(name, args...)
	for _, c := range f.Calls() {
		if c == key {
			return true
		}
	}
	return false
}
