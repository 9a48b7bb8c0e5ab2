// Package config provides the pacpilot settings document and the settings
// context shared by the components that need it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RetentionPeriod is how long pre-update snapshots are kept.
type RetentionPeriod int

const (
	Forever RetentionPeriod = iota
	Day
	Week
	Month
	Year
)

var periodNames = map[RetentionPeriod]string{
	Forever: "forever",
	Day:     "day",
	Week:    "week",
	Month:   "month",
	Year:    "year",
}

func (p RetentionPeriod) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("RetentionPeriod(%d)", int(p))
}

// ParseRetentionPeriod parses a period name, case-insensitively.
func ParseRetentionPeriod(s string) (RetentionPeriod, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for p, name := range periodNames {
		if name == want {
			return p, nil
		}
	}
	return Forever, fmt.Errorf("unknown retention period %q (want forever, day, week, month, or year)", s)
}

// Duration returns the age limit of the period. Forever returns 0.
func (p RetentionPeriod) Duration() time.Duration {
	const day = 24 * time.Hour
	switch p {
	case Day:
		return day
	case Week:
		return 7 * day
	case Month:
		return 30 * day
	case Year:
		return 365 * day
	default:
		return 0
	}
}

// Cutoff returns the oldest snapshot time kept relative to now. The second
// value is false for Forever, which has no cutoff.
func (p RetentionPeriod) Cutoff(now time.Time) (time.Time, bool) {
	d := p.Duration()
	if d == 0 {
		return time.Time{}, false
	}
	return now.Add(-d), true
}

// MarshalYAML implements yaml.Marshaler.
func (p RetentionPeriod) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *RetentionPeriod) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseRetentionPeriod(node.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Settings is the persisted user configuration.
type Settings struct {
	EnableAUR       bool            `yaml:"enable_aur_support"`
	PreferredHelper string          `yaml:"preferred_aur_helper,omitempty"`
	CreateSnapshot  bool            `yaml:"create_snapshot"`
	SnapshotCount   int             `yaml:"snapshot_count"`
	RetentionPeriod RetentionPeriod `yaml:"snapshot_retention_period"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	return Settings{
		EnableAUR:       false,
		CreateSnapshot:  true,
		SnapshotCount:   1,
		RetentionPeriod: Forever,
	}
}

func (s *Settings) normalize() {
	if s.SnapshotCount < 1 {
		s.SnapshotCount = 1
	}
	s.PreferredHelper = strings.TrimSpace(s.PreferredHelper)
}

// Keys lists the names accepted by Set, in display order.
var Keys = []string{
	"enable_aur_support",
	"preferred_aur_helper",
	"create_snapshot",
	"snapshot_count",
	"snapshot_retention_period",
}

// Set assigns one field by its document key.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "enable_aur_support":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q for %s", value, key)
		}
		s.EnableAUR = b
	case "preferred_aur_helper":
		if value == "auto" {
			value = ""
		}
		s.PreferredHelper = value
	case "create_snapshot":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q for %s", value, key)
		}
		s.CreateSnapshot = b
	case "snapshot_count":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("snapshot_count must be a positive integer, got %q", value)
		}
		s.SnapshotCount = n
	case "snapshot_retention_period":
		p, err := ParseRetentionPeriod(value)
		if err != nil {
			return err
		}
		s.RetentionPeriod = p
	default:
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Dir returns the pacpilot config directory, respecting XDG_CONFIG_HOME and
// falling back to $HOME/.config. It fails when neither is set.
func Dir() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "pacpilot"), nil
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", "pacpilot"), nil
	}
	return "", fmt.Errorf("could not determine config directory: neither XDG_CONFIG_HOME nor HOME is set")
}

// Path returns the default settings file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// Load reads settings from path. A missing file yields Defaults; fields
// absent from the file keep their default values.
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	s.normalize()
	return s, nil
}

// write persists s to path through a temporary file and rename.
func write(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temporary settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
