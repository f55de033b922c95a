package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/isaiah-harvey/logicrpc/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the published presence live",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("watch needs a terminal; use %s instead", styleCommand.Render("logicrpc status"))
		}
		if _, err := fetchStatus(cmd.Context()); err != nil {
			return err
		}
		return tui.Run(fetchStatus)
	},
}
