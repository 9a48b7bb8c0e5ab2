package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRootCommand(t *testing.T) {
	// Test that root command is properly configured
	if RootCmd.Use != "pacpilot" {
		t.Errorf("expected Use to be 'pacpilot', got '%s'", RootCmd.Use)
	}

	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	// Test that subcommands are registered
	commands := RootCmd.Commands()

	expectedCommands := []string{"check", "install", "snapshot", "unlock", "config", "helpers", "history"}
	foundCommands := make(map[string]bool)

	for _, cmd := range commands {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"db", "config", "log-level"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestGetDBPath(t *testing.T) {
	tests := []struct {
		name       string
		dbPathFlag string
	}{
		{name: "default path", dbPathFlag: ""},
		{name: "custom path", dbPathFlag: "/tmp/test.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldDBPath := dbPath
			dbPath = tt.dbPathFlag
			defer func() { dbPath = oldDBPath }()

			path, err := getDBPath()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.dbPathFlag != "" && path != tt.dbPathFlag {
				t.Errorf("expected path to be '%s', got '%s'", tt.dbPathFlag, path)
			}

			if tt.dbPathFlag == "" {
				home, _ := os.UserHomeDir()
				expectedPath := filepath.Join(home, ".pacpilot", "history.db")
				if path != expectedPath {
					t.Errorf("expected default path to be '%s', got '%s'", expectedPath, path)
				}
			}
		})
	}
}

func TestGetSettingsPath(t *testing.T) {
	oldConfigPath := configPath
	defer func() { configPath = oldConfigPath }()

	configPath = "/tmp/custom.yaml"
	path, err := getSettingsPath()
	if err != nil || path != "/tmp/custom.yaml" {
		t.Errorf("expected flag value, got %q (err %v)", path, err)
	}

	configPath = ""
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err = getSettingsPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join("/xdg", "pacpilot", "settings.yaml") {
		t.Errorf("unexpected default settings path %q", path)
	}
}

func TestErrorHint(t *testing.T) {
	lockErr := errors.New("Command failed: error: failed to init transaction (unable to lock database)")
	if hint := ErrorHint(lockErr); hint == "" {
		t.Error("expected a hint for a lock error")
	}

	if hint := ErrorHint(errors.New("something else")); hint != "" {
		t.Errorf("expected no hint, got %q", hint)
	}

	if hint := ErrorHint(nil); hint != "" {
		t.Errorf("expected no hint for nil, got %q", hint)
	}
}
