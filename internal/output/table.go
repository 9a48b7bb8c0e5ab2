// Package output provides terminal output utilities for pacpilot.
//
// This package includes:
//   - Table rendering for pending updates, snapshots, and history
//   - A poll-driven spinner for long background work
//   - A progress bar for snapshot pruning
//   - Human-readable formatting for size deltas and ages
//
// Column widths are measured in terminal cells, so descriptions with wide
// characters stay aligned. Colour is applied only after padding.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/blackwell-systems/pacpilot/internal/snapshots"
	"github.com/blackwell-systems/pacpilot/internal/store"
	"github.com/blackwell-systems/pacpilot/internal/updates"
)

const (
	maxNameWidth        = 28
	maxVersionWidth     = 22
	maxDescriptionWidth = 48
)

// IsColorEnabled returns true if colour should be emitted on w.
// It checks that w is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return writerIsTTY(w)
}

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// FormatDelta renders a signed byte delta in IEC units, e.g. "+1.5 MiB".
func FormatDelta(delta int64) string {
	switch {
	case delta > 0:
		return "+" + humanize.IBytes(uint64(delta))
	case delta < 0:
		return "-" + humanize.IBytes(uint64(-delta))
	default:
		return "0 B"
	}
}

func repositoryStyle(repo string) color.Color {
	switch repo {
	case updates.AURRepository:
		return color.Yellow
	case "core":
		return color.Magenta
	case "extra", "multilib":
		return color.Cyan
	case "Unknown":
		return color.Gray
	default:
		return color.Blue
	}
}

func deltaStyle(delta int64) color.Color {
	switch {
	case delta > 0:
		return color.Red
	case delta < 0:
		return color.Green
	default:
		return color.Gray
	}
}

type table struct {
	headers []string
	rows    [][]string
	// paint, if set, colours a padded cell.
	paint func(row, col int, padded string) string
}

func (t *table) render(sb *strings.Builder) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range t.rows {
		for i, cell := range r {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0
	for i, h := range t.headers {
		total += widths[i] + 2
		sb.WriteString(pad(h, widths[i], i == len(t.headers)-1))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", total-2))
	sb.WriteString("\n")

	for ri, r := range t.rows {
		for ci, cell := range r {
			padded := pad(cell, widths[ci], ci == len(r)-1)
			if t.paint != nil {
				padded = t.paint(ri, ci, padded)
			}
			sb.WriteString(padded)
		}
		sb.WriteString("\n")
	}
}

func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	return runewidth.FillRight(s, width) + "  "
}

// truncate shortens s to maxWidth terminal cells, adding "..." if truncated.
func truncate(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "...")
}

// RenderUpdateTable renders pending updates in the order given, followed by
// a summary line. Updates that change the major version are marked with "!".
func RenderUpdateTable(records []updates.Record, colored bool) string {
	if len(records) == 0 {
		return "System is up to date.\n"
	}

	t := table{headers: []string{"Repository", "Package", "Current", "New", "Size", "", "Description"}}
	official := 0
	for _, r := range records {
		if !r.IsAUR() {
			official++
		}
		major := ""
		if r.IsMajorBump() {
			major = "!"
		}
		t.rows = append(t.rows, []string{
			r.Repository,
			truncate(r.Name, maxNameWidth),
			truncate(r.CurrentVersion, maxVersionWidth),
			truncate(r.NewVersion, maxVersionWidth),
			FormatDelta(r.SizeDelta),
			major,
			truncate(r.Description, maxDescriptionWidth),
		})
	}

	if colored {
		t.paint = func(row, col int, padded string) string {
			r := records[row]
			switch col {
			case 0:
				return repositoryStyle(r.Repository).Sprint(padded)
			case 4:
				return deltaStyle(r.SizeDelta).Sprint(padded)
			case 5:
				if strings.TrimSpace(padded) != "" {
					return color.Red.Sprint(padded)
				}
			}
			return padded
		}
	}

	var sb strings.Builder
	t.render(&sb)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%d updates (%d official, %d AUR), total size change: %s\n",
		len(records), official, len(records)-official, FormatDelta(updates.TotalDelta(records))))

	return sb.String()
}

// RenderSnapshotTable renders the snapshot inventory, newest first.
// protected, if non-empty, is flagged in the table.
func RenderSnapshotTable(snaps []snapshots.Snapshot, protected string, now time.Time) string {
	if len(snaps) == 0 {
		return "No snapshots found.\n"
	}

	t := table{headers: []string{"Name", "Age", "Comment"}}
	for i := len(snaps) - 1; i >= 0; i-- {
		s := snaps[i]
		age := "unknown"
		if ts, ok := s.Time(); ok {
			age = formatRelativeTime(ts, now)
		}
		name := s.Name
		if name == protected {
			name += " *"
		}
		t.rows = append(t.rows, []string{name, age, truncate(s.Comment, maxDescriptionWidth)})
	}

	var sb strings.Builder
	t.render(&sb)
	return sb.String()
}

// RenderHistoryTable renders history entries in the order given.
func RenderHistoryTable(entries []store.Entry, now time.Time) string {
	if len(entries) == 0 {
		return "No history recorded yet.\n"
	}

	t := table{headers: []string{"When", "Kind", "Details"}}
	for _, e := range entries {
		t.rows = append(t.rows, []string{formatRelativeTime(e.At, now), e.Kind, e.Summary})
	}

	var sb strings.Builder
	t.render(&sb)
	return sb.String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
