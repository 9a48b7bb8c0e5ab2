package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pacpilot/internal/pacman"
)

var unlockYes bool

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Remove a stale pacman database lock",
	Long: `Remove the pacman database lock file (/var/lib/pacman/db.lck).

pacman leaves the lock behind when it is interrupted, and every later
transaction then fails with "unable to lock database". Only remove the lock
when no other package manager is running. Removing it usually needs root.`,
	Example: `  sudo pacpilot unlock
  sudo pacpilot unlock --yes`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

func init() {
	unlockCmd.Flags().BoolVarP(&unlockYes, "yes", "y", false, "skip the confirmation prompt")

	RootCmd.AddCommand(unlockCmd)
}

func runUnlock(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !unlockYes {
		sess := &session{out: out, in: cmd.InOrStdin()}
		if !sess.confirm(fmt.Sprintf("Remove %s? Make sure no other package manager is running.", lockPath)) {
			fmt.Fprintln(out, "Lock left in place.")
			return nil
		}
	}

	if err := pacman.RemoveLock(lockPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s\n", lockPath)
	return nil
}
