package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/pacpilot/internal/aur"
)

var helpersCmd = &cobra.Command{
	Use:   "helpers",
	Short: "List installed AUR helpers",
	Long: `List the AUR helpers found on this system in priority order and show
which one pacpilot uses. A preferred_aur_helper setting wins when that
helper is installed.`,
	Args: cobra.NoArgs,
	RunE: runHelpers,
}

func init() {
	RootCmd.AddCommand(helpersCmd)
}

func runHelpers(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	available := aur.Available(sess.runner)
	if len(available) == 0 {
		fmt.Fprintln(sess.out, "No AUR helper installed (supported: yay, paru, trizen, pikaur, pamac).")
		return nil
	}

	settings := sess.settings.Get()
	selected, ok := aur.Select(settings, sess.runner)

	fmt.Fprintln(sess.out, "Installed AUR helpers:")
	for _, h := range available {
		marker := " "
		if ok && h == selected {
			marker = "*"
		}
		fmt.Fprintf(sess.out, "  %s %s\n", marker, h)
	}

	if !settings.EnableAUR {
		fmt.Fprintln(sess.out, "\nAUR support is disabled. Enable it with 'pacpilot config set enable_aur_support true'.")
	}
	return nil
}
