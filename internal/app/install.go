package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pacpilot/internal/aur"
	"github.com/blackwell-systems/pacpilot/internal/install"
	"github.com/blackwell-systems/pacpilot/internal/output"
	"github.com/blackwell-systems/pacpilot/internal/pacman"
	"github.com/blackwell-systems/pacpilot/internal/snapshots"
	"github.com/blackwell-systems/pacpilot/internal/store"
	"github.com/blackwell-systems/pacpilot/internal/updates"
)

var (
	installAll        bool
	installSnapshot   bool
	installNoSnapshot bool
	installInline     bool
	installYes        bool
)

var installCmd = &cobra.Command{
	Use:   "install [package...]",
	Short: "Install updates, taking a Timeshift snapshot first",
	Long: `Install pending updates in a terminal window.

The named packages (or every pending update with --all) are split into
official and AUR packages using a fresh update check. Names that are not
pending updates are handed to pacman.

When snapshots are enabled, a Timeshift snapshot is created and old
snapshots are pruned before anything is installed. If the snapshot fails,
nothing is installed.

The installation runs in a new terminal window so pacman's prompts can be
answered. pacpilot waits for it to finish and records the result.`,
	Example: `  # Install every pending update
  pacpilot install --all

  # Install two packages without a snapshot
  pacpilot install linux firefox --no-snapshot

  # Run in the current terminal
  pacpilot install --all --inline`,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installAll, "all", false, "install every pending update")
	installCmd.Flags().BoolVar(&installSnapshot, "snapshot", false, "create a snapshot before installing (overrides settings)")
	installCmd.Flags().BoolVar(&installNoSnapshot, "no-snapshot", false, "skip the snapshot (overrides settings)")
	installCmd.Flags().BoolVar(&installInline, "inline", false, "run the installation in the current terminal")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "skip the confirmation prompt and pass --noconfirm to the AUR helper")

	RootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	if installSnapshot && installNoSnapshot {
		return errors.New("--snapshot and --no-snapshot are mutually exclusive")
	}
	if !installAll && len(args) == 0 {
		return errors.New("no packages given: name the packages to install or use --all")
	}
	if installAll && len(args) > 0 {
		return errors.New("--all cannot be combined with package names")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	var (
		result  *updates.Result
		adapter *aur.Adapter
	)
	err = runWithSpinner(cmd.ErrOrStderr(), "Checking for updates", func() error {
		var err error
		result, adapter, err = collectUpdates(sess, true)
		return err
	})
	if err != nil {
		return err
	}
	if result.AURErr != nil {
		fmt.Fprintf(sess.out, "Warning: AUR check failed: %v\n", result.AURErr)
	}

	official, aurNames := splitPackages(result, args, installAll)
	if len(official) == 0 && len(aurNames) == 0 {
		fmt.Fprintln(sess.out, "System is up to date.")
		return nil
	}
	if len(aurNames) > 0 && adapter == nil {
		return fmt.Errorf("cannot install %s: %w", strings.Join(aurNames, ", "), aur.ErrNoHelper)
	}

	var commands [][]string
	if len(official) > 0 {
		argv, err := pacman.InstallCommand(official)
		if err != nil {
			return err
		}
		commands = append(commands, argv)
	}
	if len(aurNames) > 0 {
		adapter.NoConfirm = installYes
		argv, err := adapter.InstallCommand(aurNames)
		if err != nil {
			return err
		}
		commands = append(commands, argv)
	}

	printInstallPlan(sess, official, aurNames)
	if !installYes && !sess.confirm("Proceed with installation?") {
		fmt.Fprintln(sess.out, "Installation cancelled.")
		return nil
	}

	run := &store.InstallRun{
		Packages:    official,
		AURPackages: aurNames,
	}

	if wantSnapshot(sess) {
		name, err := takeSnapshot(ctx, cmd, sess)
		if err != nil {
			run.StartedAt = now()
			run.Outcome = store.OutcomeAborted
			sess.record("install run", func(st *store.Store) error {
				_, err := st.StartInstallRun(run)
				return err
			})
			return fmt.Errorf("snapshot failed, nothing was installed: %w", err)
		}
		run.Snapshot = name
	}

	launcher := install.NewLauncher(newTerminal(sess.runner, installInline), installPaths())
	launcher.Pause = !installInline

	handle, err := launcher.LaunchCommands(commands...)
	if err != nil {
		return err
	}

	run.StartedAt = handle.Started
	run.Terminal = handle.Terminal
	var runID int64
	sess.record("install run", func(st *store.Store) error {
		var err error
		runID, err = st.StartInstallRun(run)
		return err
	})

	if !installInline {
		fmt.Fprintf(sess.out, "Installation started in %s.\n", handle.Terminal)
	}

	var success bool
	err = runWithSpinner(cmd.ErrOrStderr(), "Waiting for the installation to finish", func() error {
		var err error
		success, err = launcher.Wait(ctx, handle, pollInterval)
		return err
	})
	if err != nil {
		return fmt.Errorf("stopped waiting for the installation: %w", err)
	}

	outcome := store.OutcomeFailure
	if success {
		outcome = store.OutcomeSuccess
	}
	if runID != 0 {
		sess.record("install outcome", func(st *store.Store) error {
			return st.FinishInstallRun(runID, outcome, now())
		})
	}

	if !success {
		return errors.New("installation failed, see the terminal output for details")
	}
	fmt.Fprintln(sess.out, "Installation completed successfully.")
	return nil
}

// splitPackages resolves requested names against the check result. With all
// set, every selected record is used. Names that are not pending updates go
// to pacman.
func splitPackages(result *updates.Result, names []string, all bool) (official, aurNames []string) {
	if all {
		return updates.SelectedNames(result.Merged())
	}

	fromAUR := make(map[string]bool, len(result.AUR))
	for _, r := range result.AUR {
		fromAUR[r.Name] = true
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if fromAUR[name] {
			aurNames = append(aurNames, name)
		} else {
			official = append(official, name)
		}
	}
	return official, aurNames
}

func printInstallPlan(sess *session, official, aurNames []string) {
	if len(official) > 0 {
		fmt.Fprintf(sess.out, "Official (%d): %s\n", len(official), strings.Join(official, " "))
	}
	if len(aurNames) > 0 {
		fmt.Fprintf(sess.out, "AUR (%d): %s\n", len(aurNames), strings.Join(aurNames, " "))
	}
}

// wantSnapshot applies the --snapshot/--no-snapshot overrides to the
// create_snapshot setting.
func wantSnapshot(sess *session) bool {
	switch {
	case installNoSnapshot:
		return false
	case installSnapshot:
		return true
	default:
		return sess.settings.Get().CreateSnapshot
	}
}

// takeSnapshot creates and prunes in the background while the foreground
// polls and animates. It returns the new snapshot name.
func takeSnapshot(ctx context.Context, cmd *cobra.Command, sess *session) (string, error) {
	manager := snapshots.New(sess.runner, !sess.users.IsRoot())
	settings := sess.settings.Get()

	onDelete := func(snap snapshots.Snapshot) {
		sess.record("snapshot deletion", func(st *store.Store) error {
			return st.InsertSnapshotEvent(&store.SnapshotEvent{
				OccurredAt: now(),
				Name:       snap.Name,
				Action:     store.SnapshotDeleted,
				Comment:    snap.Comment,
			})
		})
	}

	spinner := output.NewSpinner(cmd.ErrOrStderr(), "Creating snapshot")
	task := snapshots.Start(ctx, manager, snapshots.DefaultComment, settings, onDelete)
	outcome, err := task.Wait(ctx, pollInterval, spinner.Tick)
	if err != nil {
		spinner.Stop("")
		return "", err
	}

	if outcome.Snapshot != "" {
		sess.record("snapshot creation", func(st *store.Store) error {
			return st.InsertSnapshotEvent(&store.SnapshotEvent{
				OccurredAt: now(),
				Name:       outcome.Snapshot,
				Action:     store.SnapshotCreated,
				Comment:    snapshots.DefaultComment,
			})
		})
	}
	if outcome.Err != nil {
		spinner.Stop("")
		return "", outcome.Err
	}

	spinner.Stop(fmt.Sprintf("Created snapshot %s", outcome.Snapshot))
	if n := len(outcome.Deleted); n > 0 {
		fmt.Fprintf(sess.out, "Pruned %d old snapshot(s): %s\n", n, strings.Join(outcome.Deleted, ", "))
	}
	return outcome.Snapshot, nil
}
