package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/pacpilot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show or change pacpilot settings.

Settings:
  enable_aur_support         check and install AUR updates (default false)
  preferred_aur_helper       yay, paru, trizen, pikaur, pamac, or auto
  create_snapshot            snapshot before installing (default true)
  snapshot_count             snapshots to keep, at least 1 (default 1)
  snapshot_retention_period  forever, day, week, month, or year (default forever)`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Example: `  pacpilot config set enable_aur_support true
  pacpilot config set snapshot_retention_period week`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := getSettingsPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configPathCmd)
	RootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	data, err := yaml.Marshal(sess.settings.Get())
	if err != nil {
		return fmt.Errorf("failed to render settings: %w", err)
	}
	fmt.Fprintf(sess.out, "# %s\n%s", sess.settings.Path(), data)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	key, value := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
	if _, err := sess.settings.Update(func(s *config.Settings) error {
		return s.Set(key, value)
	}); err != nil {
		return err
	}
	fmt.Fprintf(sess.out, "Set %s = %s\n", key, value)
	return nil
}
