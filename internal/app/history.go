package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pacpilot/internal/output"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent checks, installs, and snapshot changes",
	Example: `  pacpilot history
  pacpilot history --limit 50`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 1 {
		return fmt.Errorf("--limit must be positive, got %d", historyLimit)
	}

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if sess.history == nil {
		return errors.New("history database is unavailable, see the warning above")
	}

	entries, err := sess.history.History(historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(sess.out, "No history yet.")
		return nil
	}
	fmt.Fprint(sess.out, output.RenderHistoryTable(entries, now()))
	return nil
}
