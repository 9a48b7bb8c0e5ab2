package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Spinner shows an animated status line for work running in the
// background. It has no goroutine of its own: the caller's poll loop calls
// Tick, so the animation also proves the foreground is not blocked.
// Example: |  Creating snapshot (12s elapsed)
type Spinner struct {
	mu        sync.Mutex
	message   string
	chars     []string
	idx       int
	writer    io.Writer
	tty       bool
	startTime time.Time
	lastDraw  time.Time
	running   bool
}

// NewSpinner creates a spinner writing to w and starts it.
// If w is not a TTY the message is printed once and Tick is a no-op.
func NewSpinner(w io.Writer, message string) *Spinner {
	s := &Spinner{
		message:   message,
		chars:     []string{"|", "/", "-", "\\"},
		writer:    w,
		tty:       writerIsTTY(w),
		startTime: time.Now(),
		running:   true,
	}
	if !s.tty {
		fmt.Fprintf(w, "%s...\n", message)
	}
	return s
}

// Tick advances the animation. Frames are drawn at most every 100ms no
// matter how often Tick is called.
func (s *Spinner) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || !s.tty {
		return
	}
	now := time.Now()
	if now.Sub(s.lastDraw) < 100*time.Millisecond {
		return
	}
	s.lastDraw = now

	elapsed := int(now.Sub(s.startTime).Seconds())
	fmt.Fprintf(s.writer, "\r%s  %s (%ds elapsed)", s.chars[s.idx], s.message, elapsed)
	s.idx = (s.idx + 1) % len(s.chars)
}

// UpdateMessage updates the spinner message while it's running.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop clears the spinner line and, if message is non-empty, prints it.
func (s *Spinner) Stop(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	if s.tty {
		fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", len(s.message)+24))
	}
	if message != "" {
		fmt.Fprintln(s.writer, message)
	}
}

// Progress reports snapshot deletions. On a TTY it draws a progress bar;
// otherwise it prints one line per step.
type Progress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
	total  int
	done   int
}

// NewProgress creates a progress reporter for total steps.
func NewProgress(w io.Writer, total int, description string) *Progress {
	p := &Progress{writer: w, total: total}
	if writerIsTTY(w) {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}
	return p
}

// Step records one finished step labelled item.
func (p *Progress) Step(item string) {
	p.done++
	if p.bar != nil {
		p.bar.Describe("Deleted " + item)
		_ = p.bar.Add(1)
		return
	}
	fmt.Fprintf(p.writer, "[%d/%d] Deleted %s\n", p.done, p.total, item)
}

// Finish completes the bar.
func (p *Progress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
