// Package pacman queries the system package manager for pending updates,
// enriches them with batched repository metadata, and recovers from a stale
// package database lock.
package pacman

import (
	"strconv"
	"strings"

	"github.com/blackwell-systems/pacpilot/internal/apperr"
	"github.com/blackwell-systems/pacpilot/internal/logger"
	"github.com/blackwell-systems/pacpilot/internal/runner"
	"github.com/blackwell-systems/pacpilot/internal/updates"
)

const noUpgradesMessage = "no packages to upgrade"

// Collector produces the official-repository update list.
type Collector struct {
	runner runner.Runner
}

// NewCollector creates a Collector that runs pacman through r.
func NewCollector(r runner.Runner) *Collector {
	return &Collector{runner: r}
}

// Sync refreshes the package databases with `sudo pacman -Sy`.
func (c *Collector) Sync() error {
	res, err := c.runner.Run("sudo", "pacman", "-Sy")
	if err != nil {
		return apperr.SyncFailed("failed to sync package databases: %v", err)
	}
	if !res.Success() {
		return apperr.SyncFailed("failed to sync package databases: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// CollectUpdates syncs the databases (best effort), lists upgradable
// packages, and resolves repository, description, and size delta for each
// through two batched metadata queries.
func (c *Collector) CollectUpdates() ([]updates.Record, error) {
	if err := c.Sync(); err != nil {
		logger.Warn("database sync failed, continuing with local databases", "error", err)
	}

	res, err := c.runner.Run("pacman", "-Qu")
	if err != nil {
		return nil, apperr.Wrap(err, "failed to run pacman -Qu")
	}

	if !res.Success() {
		stderr := strings.TrimSpace(res.Stderr)
		stdout := strings.TrimSpace(res.Stdout)
		if strings.Contains(stderr, noUpgradesMessage) || (stderr == "" && stdout == "") {
			return []updates.Record{}, nil
		}
		if stderr == "" {
			stderr = "exit code " + strconv.Itoa(res.ExitCode) + " with no error output"
		}
		return nil, apperr.CommandFailed("pacman -Qu failed: %s", stderr)
	}

	upgrades := ParseUpgradable(res.Stdout)
	if len(upgrades) == 0 {
		return []updates.Record{}, nil
	}

	names := make([]string, 0, len(upgrades))
	seen := make(map[string]bool, len(upgrades))
	for _, u := range upgrades {
		if !seen[u.Name] {
			seen[u.Name] = true
			names = append(names, u.Name)
		}
	}

	infos, candidateSizes, err := c.repositoryInfo(names)
	if err != nil {
		return nil, err
	}
	installedSizes, err := c.installedSizes(names)
	if err != nil {
		return nil, err
	}

	records := make([]updates.Record, 0, len(upgrades))
	for _, u := range upgrades {
		info, ok := infos[u.Name]
		if !ok {
			info = PackageInfo{Repository: unknownRepository, Description: noDescription}
		}

		records = append(records, updates.Record{
			Repository:     info.Repository,
			Name:           u.Name,
			Description:    info.Description,
			CurrentVersion: u.CurrentVersion,
			NewVersion:     u.NewVersion,
			SizeDelta:      SizeDelta(lookupSize(installedSizes, u.Name), lookupSize(candidateSizes, u.Name)),
			Selected:       true,
		})
	}

	return records, nil
}

// repositoryInfo runs one batched `pacman -Si` for all names. The exit
// status is ignored: pacman reports unknown names on stderr but still
// prints the blocks it found.
func (c *Collector) repositoryInfo(names []string) (map[string]PackageInfo, map[string]string, error) {
	args := append([]string{"-Si"}, names...)
	res, err := c.runner.Run("pacman", args...)
	if err != nil {
		return nil, nil, apperr.Wrap(err, "failed to get batch package info")
	}
	infos, sizes := parseRepositoryInfo(res.Stdout)
	return infos, sizes, nil
}

// installedSizes runs one batched `pacman -Qi` for all names.
func (c *Collector) installedSizes(names []string) (map[string]string, error) {
	args := append([]string{"-Qi"}, names...)
	res, err := c.runner.Run("pacman", args...)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to get batch installed package sizes")
	}
	return parseInstalledSizes(res.Stdout), nil
}

func lookupSize(sizes map[string]string, name string) string {
	if s, ok := sizes[name]; ok {
		return s
	}
	return "Unknown"
}
