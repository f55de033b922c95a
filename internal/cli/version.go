package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/isaiah-harvey/logicrpc/internal/buildinfo"
	"github.com/isaiah-harvey/logicrpc/internal/updater"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("  %s %s\n", styleBrand.Render("logicrpc"), styleVersion.Render(buildinfo.Version))
		fmt.Printf("    %s  %s\n", styleLabel.Render("Commit"), styleValue.Render(buildinfo.CommitHash))
		fmt.Printf("    %s   %s\n", styleLabel.Render("Built"), styleValue.Render(buildinfo.BuildDate))
		fmt.Printf("    %s %s\n", styleLabel.Render("OS/Arch"), styleValue.Render(runtime.GOOS+"/"+runtime.GOARCH))
		fmt.Printf("    %s      %s\n", styleLabel.Render("Go"), styleValue.Render(runtime.Version()))

		if !versionCheck {
			return nil
		}
		return checkForUpdate(cmd.Context())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
}

func checkForUpdate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := updater.NewChecker().Check(ctx)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}

	fmt.Println()
	switch {
	case result.Available:
		fmt.Printf("  %s v%s → v%s\n", styleWarning.Render("Update available:"), result.CurrentVersion, result.LatestVersion)
		fmt.Printf("    %s\n", styleHint.Render(result.ReleaseURL))
	case result.LatestVersion == "":
		fmt.Printf("  %s\n", styleHint.Render("No releases published yet"))
	default:
		fmt.Printf("  %s\n", styleSuccess.Render("Up to date"))
	}
	return nil
}
