package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/isaiah-harvey/logicrpc/internal/config"
	"github.com/isaiah-harvey/logicrpc/internal/models"
)

var settingsInitForce bool

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"config"},
	Short:   "Inspect and create the settings file",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		fmt.Print(string(data))

		if env := os.Getenv(models.ClientIDEnv); env != "" {
			fmt.Println(styleHint.Render(fmt.Sprintf("# discord.client_id is overridden by $%s=%s", models.ClientIDEnv, env)))
		} else if settings.Discord.ClientID == "" {
			fmt.Println(styleWarning.Render(fmt.Sprintf("# discord.client_id is empty; set it here or in $%s", models.ClientIDEnv)))
		}
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalSettingsFile()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalSettingsFile()
		if err != nil {
			return err
		}
		if config.FileExists(path) && !settingsInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.SaveSettings(models.NewSettings()); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", styleSuccess.Render("✓"), path)
		return nil
	},
}

func init() {
	settingsInitCmd.Flags().BoolVarP(&settingsInitForce, "force", "f", false, "Overwrite an existing settings file")

	settingsCmd.AddCommand(settingsInitCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsShowCmd)
}
