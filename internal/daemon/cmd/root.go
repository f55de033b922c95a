// Package cmd implements the logicrpcd command line.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	foreground bool
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "logicrpcd",
	Short: "Logic Pro Rich Presence daemon",
	Long: `logicrpcd watches Logic Pro and publishes what you are working on as
your Discord Rich Presence. By default it runs as a menu bar item.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground without the menu bar item")
	rootCmd.Flags().IntVar(&port, "port", 0, "Port for the control server (0 for dynamic allocation)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
