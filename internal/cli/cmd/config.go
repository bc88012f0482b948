package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bnema/flashota/internal/cli/styles"
	"github.com/bnema/flashota/internal/infrastructure/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
	Long:  `Show where the configuration lives, validate it, or print its JSON schema.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(_ *cobra.Command, _ []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		fmt.Println(app.ConfigMgr.GetConfigFile())
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	Long:  `Load the config file with environment overrides applied and report the result.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Loading already validated the file; reaching this point means it is valid.
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		ok := lipgloss.NewStyle().Foreground(app.Theme.Success).Render(styles.IconCheck)
		fmt.Printf("\n  %s %s is valid\n\n", ok, app.Theme.Highlight.Render(app.ConfigMgr.GetConfigFile()))
		return nil
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the config file",
	RunE: func(_ *cobra.Command, _ []string) error {
		schema, err := config.GenerateSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSchemaCmd)
}
