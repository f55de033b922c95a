package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/isaiah-harvey/logicrpc/internal/daemon/server"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the published presence",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := fetchStatus(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, styleError.Render("Error:"), err)
			fmt.Fprintf(os.Stderr, "Is the daemon running? Try %s\n", styleCommand.Render("logicrpc daemon start"))
			return err
		}

		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		renderPresence(os.Stdout, status.Presence, time.Now())
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status as JSON")
}

// renderPresence prints the presence block shared by status commands.
func renderPresence(w io.Writer, p *server.PresenceStatus, now time.Time) {
	fmt.Fprintln(w, styleBrand.Render("Presence"))
	if p == nil || !p.Enabled {
		fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("State:   "), styleWarning.Render("disabled"))
		if p != nil && p.StartError != "" {
			fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("Reason:  "), styleValue.Render(p.StartError))
		}
		fmt.Fprintf(w, "  %s\n", styleHint.Render("Start Discord, then run: logicrpc daemon restart"))
		return
	}

	target := styleHint.Render("not running")
	if p.TargetRunning {
		target = styleSuccess.Render("running")
		if p.Document != "" {
			target += styleValue.Render(" (" + p.Document + ")")
		}
	}
	fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("Logic Pro:"), target)

	showing := styleHint.Render("nothing")
	if p.Published {
		showing = styleValue.Render(p.Text)
	}
	fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("Showing: "), showing)

	if p.LastPublishedAt != nil {
		ago := now.Sub(p.LastPublishedAt.AsTime()).Truncate(time.Second)
		fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("Updated: "), styleValue.Render(ago.String()+" ago"))
	}
	fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("Calls:   "),
		styleValue.Render(fmt.Sprintf("%d set, %d clear", p.SetCalls, p.ClearCalls)))

	if p.LastError != "" {
		fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("Error:   "), styleError.Render(p.LastError))
	}
	if !p.Active {
		fmt.Fprintf(w, "  %s\n", styleWarning.Render("Loop stopped"))
	}
}
