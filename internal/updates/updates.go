// Package updates holds the normalized update record produced by every
// update source and the caller-side logic that runs the sources and merges
// their results into one working set.
package updates

import (
	"sort"
	"strings"
	"sync"

	version "github.com/hashicorp/go-version"

	"github.com/blackwell-systems/pacpilot/internal/logger"
)

// AURRepository labels every record coming from an AUR helper.
const AURRepository = "AUR"

// Record is one pending update.
type Record struct {
	Repository     string `json:"repository"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CurrentVersion string `json:"current_version"`
	NewVersion     string `json:"new_version"`
	// SizeDelta is new minus current installed size in bytes. Zero means
	// unknown or equal; the two cases are not distinguished.
	SizeDelta int64 `json:"size_delta"`
	Selected  bool  `json:"selected"`
}

// IsAUR reports whether the record came from an AUR helper.
func (r Record) IsAUR() bool {
	return r.Repository == AURRepository
}

// IsMajorBump reports whether the update changes the epoch or the leading
// version segment. Versions that cannot be parsed report false.
func (r Record) IsMajorBump() bool {
	curEpoch, cur := splitPackageVersion(r.CurrentVersion)
	newEpoch, next := splitPackageVersion(r.NewVersion)
	if curEpoch != newEpoch {
		return true
	}

	cv, err := version.NewVersion(cur)
	if err != nil {
		return false
	}
	nv, err := version.NewVersion(next)
	if err != nil {
		return false
	}
	return nv.Segments()[0] > cv.Segments()[0]
}

// splitPackageVersion splits "epoch:pkgver-pkgrel" into the epoch and
// pkgver parts.
func splitPackageVersion(v string) (string, string) {
	epoch := "0"
	if i := strings.Index(v, ":"); i >= 0 {
		epoch = v[:i]
		v = v[i+1:]
	}
	if i := strings.LastIndex(v, "-"); i >= 0 {
		v = v[:i]
	}
	return epoch, v
}

// Source produces a list of pending updates.
type Source interface {
	CollectUpdates() ([]Record, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() ([]Record, error)

// CollectUpdates calls f.
func (f SourceFunc) CollectUpdates() ([]Record, error) {
	return f()
}

// Result is the outcome of querying the official and AUR sources.
type Result struct {
	Official []Record
	AUR      []Record
	// AURErr is set when the AUR source failed. The official list is still
	// usable in that case.
	AURErr error
}

// Merged returns the combined working set, see Merge.
func (r *Result) Merged() []Record {
	return Merge(r.Official, r.AUR)
}

// Collect queries both sources concurrently and waits for both. An official
// source failure is returned as the error; an AUR failure is recorded in
// Result.AURErr. aur may be nil when AUR support is off.
func Collect(official, aur Source) (*Result, error) {
	var (
		wg          sync.WaitGroup
		result      Result
		officialErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		result.Official, officialErr = official.CollectUpdates()
	}()

	if aur != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.AUR, result.AURErr = aur.CollectUpdates()
		}()
	}

	wg.Wait()

	if officialErr != nil {
		return nil, officialErr
	}
	if result.AURErr != nil {
		logger.Warn("AUR update check failed", "error", result.AURErr)
	}
	return &result, nil
}

// Merge returns official records followed by AUR records, each group
// ordered by name. Records sharing a name are kept as-is; deduplication is
// left to the caller.
func Merge(official, aur []Record) []Record {
	merged := make([]Record, 0, len(official)+len(aur))
	merged = append(merged, sortedByName(official)...)
	merged = append(merged, sortedByName(aur)...)
	return merged
}

func sortedByName(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// TotalDelta sums the size deltas of the selected records.
func TotalDelta(records []Record) int64 {
	var total int64
	for _, r := range records {
		if r.Selected {
			total += r.SizeDelta
		}
	}
	return total
}

// SelectedNames returns the names of selected records split by source.
func SelectedNames(records []Record) (official, aur []string) {
	for _, r := range records {
		if !r.Selected {
			continue
		}
		if r.IsAUR() {
			aur = append(aur, r.Name)
		} else {
			official = append(official, r.Name)
		}
	}
	return official, aur
}
