package install

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	scriptName = "pacpilot_install.sh"
	markerName = "pacpilot_install_complete.marker"
)

// Paths locates the generated script and its completion marker. The names
// are fixed, so two concurrent installs on one host share them.
type Paths struct {
	Script string
	Marker string
}

// DefaultPaths returns the script and marker paths under os.TempDir.
func DefaultPaths() Paths {
	return PathsIn(os.TempDir())
}

// PathsIn returns the script and marker paths under dir.
func PathsIn(dir string) Paths {
	return Paths{
		Script: filepath.Join(dir, scriptName),
		Marker: filepath.Join(dir, markerName),
	}
}

var safeWord = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_-]+$`)

// quote returns s as a single shell word.
func quote(s string) string {
	if safeWord.MatchString(s) {
		return s
	}
	return singleQuote(s)
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// CommandString renders argv as a shell command line.
func CommandString(argv []string) string {
	words := make([]string, len(argv))
	for i, a := range argv {
		words[i] = quote(a)
	}
	return strings.Join(words, " ")
}

// Script renders the install script. The commands run joined with &&, so
// the recorded exit code is that of the first failing command. The exit
// code is written to a temporary file and renamed onto marker so readers
// never see a partial marker. With pause set the script waits for Enter
// before returning, keeping a detached terminal window open.
func Script(commands [][]string, marker string, pause bool) string {
	lines := make([]string, len(commands))
	for i, argv := range commands {
		lines[i] = CommandString(argv)
	}

	tmp := singleQuote(marker + ".tmp")

	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("echo 'Installing packages...'\n")
	b.WriteString(strings.Join(lines, " && ") + "\n")
	b.WriteString("installation_result=$?\n")
	b.WriteString("echo \"Installation completed with exit code: $installation_result\"\n")
	b.WriteString("echo $installation_result > " + tmp + " && mv -f " + tmp + " " + singleQuote(marker) + "\n")
	b.WriteString("if [ $installation_result -eq 0 ]; then\n")
	b.WriteString("    echo 'Package installation successful!'\n")
	b.WriteString("else\n")
	b.WriteString("    echo 'Package installation failed!'\n")
	b.WriteString("fi\n")
	if pause {
		b.WriteString("read -p 'Press Enter to continue...'\n")
	}
	return b.String()
}
