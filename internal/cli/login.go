package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isaiah-harvey/logicrpc/internal/login"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Manage starting the daemon at login",
}

var loginEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start the daemon when you log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := loginAgent()
		if err != nil {
			return err
		}
		if err := agent.Enable(); err != nil {
			return err
		}
		fmt.Printf("%s Start at login enabled (%s)\n", styleSuccess.Render("✓"), styleHint.Render(agent.Path()))
		return nil
	},
}

var loginDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting the daemon at login",
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := loginAgent()
		if err != nil {
			return err
		}
		if err := agent.Disable(); err != nil {
			return err
		}
		fmt.Printf("%s Start at login disabled\n", styleSuccess.Render("✓"))
		return nil
	},
}

var loginStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon starts at login",
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := loginAgent()
		if err != nil {
			return err
		}
		if agent.IsEnabled() {
			fmt.Printf("Start at login is %s (%s)\n", styleSuccess.Render("enabled"), styleHint.Render(agent.Path()))
		} else {
			fmt.Printf("Start at login is %s\n", styleWarning.Render("disabled"))
		}
		return nil
	},
}

func init() {
	loginCmd.AddCommand(loginDisableCmd)
	loginCmd.AddCommand(loginEnableCmd)
	loginCmd.AddCommand(loginStatusCmd)
}

// loginAgent returns the launch agent for the installed daemon.
func loginAgent() (*login.Agent, error) {
	if !login.Supported() {
		return nil, fmt.Errorf("start at login is only available on macOS")
	}
	daemonPath, err := findDaemonBinary()
	if err != nil {
		return nil, err
	}
	return login.New(daemonPath)
}
