package pacman

import (
	"bufio"
	"strings"

	"github.com/blackwell-systems/pacpilot/internal/logger"
)

const (
	unknownRepository = "Unknown"
	noDescription     = "No description available"
)

// PackageInfo is the repository metadata of one package from pacman -Si.
type PackageInfo struct {
	Repository  string
	Description string
}

// scanFields walks "Label : value" lines of a pacman -Si/-Qi stream. onField
// receives the trimmed label and value of every line holding a colon;
// onBlank fires for every blank line.
func scanFields(output string, onField func(label, value string), onBlank func()) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			onBlank()
			continue
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		onField(strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]))
	}
}

// parseRepositoryInfo parses batched pacman -Si output into repository
// metadata and candidate installed sizes keyed by package name. The first
// block seen for a name wins; later blocks for the same name are ignored.
func parseRepositoryInfo(output string) (map[string]PackageInfo, map[string]string) {
	infos := make(map[string]PackageInfo)
	sizes := make(map[string]string)

	var (
		current    string
		open       bool
		repository = unknownRepository
		info       PackageInfo
	)

	commit := func() {
		if open {
			infos[current] = info
		}
		open = false
		current = ""
	}

	scanFields(output,
		func(label, value string) {
			switch label {
			case "Repository":
				repository = value
			case "Name":
				commit()
				if _, seen := infos[value]; seen {
					logger.Debug("ignoring duplicate info block", "package", value)
					return
				}
				current = value
				open = true
				info = PackageInfo{Repository: repository, Description: noDescription}
			case "Description":
				if open {
					info.Description = value
				}
			case "Installed Size":
				if open {
					if _, ok := sizes[current]; !ok {
						sizes[current] = value
					}
				}
			}
		},
		func() {
			commit()
			repository = unknownRepository
		},
	)
	commit()

	return infos, sizes
}

// parseInstalledSizes parses batched pacman -Qi output into installed sizes
// keyed by package name.
func parseInstalledSizes(output string) map[string]string {
	sizes := make(map[string]string)
	current := ""

	scanFields(output,
		func(label, value string) {
			switch label {
			case "Name":
				current = value
			case "Installed Size":
				if current != "" {
					sizes[current] = value
				}
			}
		},
		func() { current = "" },
	)

	return sizes
}
