package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pacpilot/internal/config"
	"github.com/blackwell-systems/pacpilot/internal/logger"
	"github.com/blackwell-systems/pacpilot/internal/pacman"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	// RootCmd is the root command for pacpilot
	RootCmd = &cobra.Command{
		Use:   "pacpilot",
		Short: "Pacman and AUR update manager with Timeshift snapshots",
		Long: `pacpilot checks the official repositories and your AUR helper for
pending updates, takes a Timeshift snapshot before installing, prunes old
snapshots according to your retention settings, and runs the installation
in a terminal window so you can follow pacman's prompts.

Quick Start:
  1. pacpilot check
  2. pacpilot install --all

Features:
  • Official and AUR updates checked concurrently
  • Size change per package and in total
  • Pre-update Timeshift snapshot with time and count retention
  • Recovery from a stale pacman database lock

Examples:
  # List pending updates
  pacpilot check

  # Install everything, snapshot first
  pacpilot install --all

  # Install two packages in this terminal, no snapshot
  pacpilot install linux firefox --inline --no-snapshot

  # Turn on AUR support
  pacpilot config set enable_aur_support true`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "pacpilot: pacman and AUR update manager")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'pacpilot check' to list pending updates.")
			fmt.Fprintln(out, "Run 'pacpilot --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (default: ~/.pacpilot/history.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default: $XDG_CONFIG_HOME/pacpilot/settings.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "diagnostic log level: debug, info, warn, error")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

func setup(cmd *cobra.Command, args []string) error {
	logger.Init(logLevel)
	return nil
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// ErrorHint returns a follow-up line for err, or "" when there is none.
// Lock errors point at the unlock command.
func ErrorHint(err error) string {
	if err != nil && pacman.IsLockError(err.Error()) {
		return "The pacman database is locked. If no other package manager is running, remove the lock with 'pacpilot unlock'."
	}
	return ""
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".pacpilot", "history.db"), nil
}

// getSettingsPath returns the settings file, using the flag value or default
func getSettingsPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.Path()
}
