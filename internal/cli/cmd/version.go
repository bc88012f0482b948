package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/flashota/internal/cli/styles"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"about"},
	Short:   "Show version and build information",
	RunE: func(_ *cobra.Command, _ []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		fmt.Print(styles.NewAboutRenderer(app.Theme).Render(app.BuildInfo))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
