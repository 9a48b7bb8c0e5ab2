package pacman

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/blackwell-systems/pacpilot/internal/logger"
)

// upgradeLine matches "name current -> new" as printed by pacman -Qu.
var upgradeLine = regexp.MustCompile(`^(\S+)\s+(\S+)\s+->\s+(\S+)`)

// Upgrade is one line of pacman -Qu output.
type Upgrade struct {
	Name           string
	CurrentVersion string
	NewVersion     string
}

// ParseUpgradable parses pacman -Qu output. Blank lines are ignored and
// lines that do not match are logged and skipped.
func ParseUpgradable(output string) []Upgrade {
	var upgrades []Upgrade

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := upgradeLine.FindStringSubmatch(line)
		if m == nil {
			logger.Warn("could not parse update line", "line", line)
			continue
		}

		upgrades = append(upgrades, Upgrade{
			Name:           m[1],
			CurrentVersion: m[2],
			NewVersion:     m[3],
		})
	}

	return upgrades
}
