package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pacpilot/internal/output"
	"github.com/blackwell-systems/pacpilot/internal/snapshots"
	"github.com/blackwell-systems/pacpilot/internal/store"
)

var (
	createComment string
	pruneComment  string
	listComment   string
	pruneDryRun   bool
	pruneYes      bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create, prune, and list Timeshift snapshots",
	Long: `Manage the Timeshift snapshots pacpilot takes before installing.

Snapshots are identified by their comment. Retention applies only to
snapshots carrying the comment, so snapshots you take by hand are never
touched.`,
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a snapshot now",
	Example: `  pacpilot snapshot create
  pacpilot snapshot create --comment "before kernel switch"`,
	Args: cobra.NoArgs,
	RunE: runSnapshotCreate,
}

var snapshotPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots beyond the retention settings",
	Long: `Apply the retention settings to snapshots carrying the comment.

With a retention period other than forever, only snapshots newer than the
period are considered; older ones are left alone. Of those considered, all
but the newest snapshot_count are deleted.`,
	Example: `  # Show what would be deleted
  pacpilot snapshot prune --dry-run

  # Delete without asking
  pacpilot snapshot prune --yes`,
	Args: cobra.NoArgs,
	RunE: runSnapshotPrune,
}

var snapshotListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List Timeshift snapshots",
	Example: `  pacpilot snapshot list --comment "pacpilot pre-update"`,
	Args:    cobra.NoArgs,
	RunE:    runSnapshotList,
}

func init() {
	snapshotCreateCmd.Flags().StringVar(&createComment, "comment", snapshots.DefaultComment, "comment identifying the snapshot")
	snapshotPruneCmd.Flags().StringVar(&pruneComment, "comment", snapshots.DefaultComment, "only prune snapshots with this comment")
	snapshotPruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "show what would be deleted without deleting")
	snapshotPruneCmd.Flags().BoolVarP(&pruneYes, "yes", "y", false, "skip the confirmation prompt")
	snapshotListCmd.Flags().StringVar(&listComment, "comment", "", "only list snapshots with this comment")

	snapshotCmd.AddCommand(snapshotCreateCmd, snapshotPruneCmd, snapshotListCmd)
	RootCmd.AddCommand(snapshotCmd)
}

func newSnapshotManager(sess *session) *snapshots.Manager {
	return snapshots.New(sess.runner, !sess.users.IsRoot())
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	manager := newSnapshotManager(sess)

	var name string
	err = runWithSpinner(cmd.ErrOrStderr(), "Creating snapshot", func() error {
		var err error
		name, err = manager.Create(createComment)
		return err
	})
	if err != nil {
		return err
	}

	recordSnapshotEvent(sess, name, store.SnapshotCreated, createComment)
	fmt.Fprintf(sess.out, "Created snapshot %s\n", name)
	return nil
}

func runSnapshotPrune(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	manager := newSnapshotManager(sess)
	settings := sess.settings.Get()

	plan, err := manager.Plan(pruneComment, settings, "")
	if err != nil {
		return err
	}

	if len(plan.Delete) == 0 {
		fmt.Fprintf(sess.out, "Nothing to prune: %d snapshot(s) with comment %q, keeping %d (%s retention).\n",
			len(plan.Matching), plan.Comment, settings.SnapshotCount, settings.RetentionPeriod)
		return nil
	}

	names := make([]string, len(plan.Delete))
	for i, snap := range plan.Delete {
		names[i] = snap.Name
	}
	fmt.Fprintf(sess.out, "%d of %d snapshot(s) exceed the retention settings:\n  %s\n",
		len(plan.Delete), len(plan.Matching), strings.Join(names, "\n  "))

	if pruneDryRun {
		fmt.Fprintln(sess.out, "Dry run: nothing deleted.")
		return nil
	}
	if !pruneYes && !sess.confirm("Delete these snapshots?") {
		fmt.Fprintln(sess.out, "Prune cancelled.")
		return nil
	}

	progress := output.NewProgress(sess.out, len(plan.Delete), "Deleting snapshots")
	err = manager.Apply(plan, func(snap snapshots.Snapshot) {
		progress.Step(snap.Name)
		recordSnapshotEvent(sess, snap.Name, store.SnapshotDeleted, snap.Comment)
	})
	progress.Finish()
	return err
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	snaps, err := newSnapshotManager(sess).List()
	if err != nil {
		return err
	}

	if listComment != "" {
		filtered := snaps[:0]
		for _, snap := range snaps {
			if strings.TrimSpace(snap.Comment) == listComment {
				filtered = append(filtered, snap)
			}
		}
		snaps = filtered
	}

	fmt.Fprint(sess.out, output.RenderSnapshotTable(snaps, "", now()))
	return nil
}

func recordSnapshotEvent(sess *session, name string, action store.SnapshotAction, comment string) {
	sess.record("snapshot event", func(st *store.Store) error {
		return st.InsertSnapshotEvent(&store.SnapshotEvent{
			OccurredAt: now(),
			Name:       name,
			Action:     action,
			Comment:    comment,
		})
	})
}
