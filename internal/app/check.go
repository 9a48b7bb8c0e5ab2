package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pacpilot/internal/aur"
	"github.com/blackwell-systems/pacpilot/internal/logger"
	"github.com/blackwell-systems/pacpilot/internal/output"
	"github.com/blackwell-systems/pacpilot/internal/pacman"
	"github.com/blackwell-systems/pacpilot/internal/store"
	"github.com/blackwell-systems/pacpilot/internal/updates"
)

var (
	checkNoAUR bool
	checkJSON  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List pending official and AUR updates",
	Long: `Sync the package databases and list every pending update.

Official updates come from pacman; AUR updates come from the selected AUR
helper when AUR support is enabled. Both are queried at the same time. The
table shows the repository, installed and new versions, and the installed
size change of each package. A "!" marks a major version change.

If the AUR helper fails, official updates are still shown.`,
	Example: `  # List pending updates
  pacpilot check

  # Official repositories only
  pacpilot check --no-aur

  # Machine-readable output
  pacpilot check --json`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkNoAUR, "no-aur", false, "skip the AUR helper even when AUR support is enabled")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print updates as JSON")

	RootCmd.AddCommand(checkCmd)
}

// checkReport is the --json document.
type checkReport struct {
	Updates    []updates.Record `json:"updates"`
	Official   int              `json:"official"`
	AUR        int              `json:"aur"`
	TotalDelta int64            `json:"total_size_delta"`
	AURError   string           `json:"aur_error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	var result *updates.Result
	err = runWithSpinner(cmd.ErrOrStderr(), "Checking for updates", func() error {
		var err error
		result, _, err = collectUpdates(sess, !checkNoAUR)
		return err
	})
	if err != nil {
		return err
	}

	merged := result.Merged()
	check := &store.UpdateCheck{
		CheckedAt:     now(),
		OfficialCount: len(result.Official),
		AURCount:      len(result.AUR),
		TotalDelta:    updates.TotalDelta(merged),
	}
	if result.AURErr != nil {
		check.AURError = result.AURErr.Error()
	}
	sess.record("update check", func(st *store.Store) error {
		_, err := st.InsertUpdateCheck(check)
		return err
	})

	if checkJSON {
		report := checkReport{
			Updates:    merged,
			Official:   check.OfficialCount,
			AUR:        check.AURCount,
			TotalDelta: check.TotalDelta,
			AURError:   check.AURError,
		}
		enc := json.NewEncoder(sess.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if result.AURErr != nil {
		fmt.Fprintf(sess.out, "Warning: AUR check failed: %v\n\n", result.AURErr)
	}
	fmt.Fprint(sess.out, output.RenderUpdateTable(merged, output.IsColorEnabled(sess.out)))
	return nil
}

// collectUpdates queries pacman and, when enabled and installed, the AUR
// helper. The returned adapter is nil when no AUR source was used.
func collectUpdates(sess *session, withAUR bool) (*updates.Result, *aur.Adapter, error) {
	official := pacman.NewCollector(sess.runner)

	var (
		adapter *aur.Adapter
		source  updates.Source
	)
	if withAUR {
		if helper, ok := aur.Select(sess.settings.Get(), sess.runner); ok {
			logger.Debug("using AUR helper", "helper", helper)
			adapter = aur.NewAdapter(sess.runner, helper, sess.users)
			source = adapter
		} else if sess.settings.Get().EnableAUR {
			logger.Warn("AUR support is enabled but no AUR helper is installed")
		}
	}

	result, err := updates.Collect(official, source)
	if err != nil {
		return nil, nil, err
	}
	return result, adapter, nil
}
