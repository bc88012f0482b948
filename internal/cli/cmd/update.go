package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/flashota/internal/application/engine"
	"github.com/bnema/flashota/internal/cli/model"
	"github.com/bnema/flashota/internal/domain/build"
	"github.com/bnema/flashota/internal/domain/entity"
)

var updateYes bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for and install a firmware update",
	Long: `Check the release source and, when a newer firmware is published, stream it
into the flash slot and commit it.

Press q or ctrl+c while checking or downloading to cancel; the running
firmware is left untouched. Use --yes to install without confirmation.`,
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "install without asking for confirmation")
}

func runUpdate(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	eng, err := app.NewEngine()
	if err != nil {
		return fmt.Errorf("build update engine: %w", err)
	}
	defer eng.Close()

	m := model.NewUpdateModel(app.Ctx(), eng, app.Theme, model.UpdateOptions{
		CurrentVersion: versionLabel(app.BuildInfo),
		Dev:            app.BuildInfo.IsDev(),
		AutoConfirm:    updateYes,
	})
	p := tea.NewProgram(m)
	forwardEngineEvents(eng, p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}

// forwardEngineEvents delivers engine callbacks to the program. Callbacks run
// on the session goroutine, so they only hand messages over.
func forwardEngineEvents(eng *engine.Engine, p *tea.Program) {
	eng.OnProgress(func(percent int, written, total uint64) {
		p.Send(model.ProgressMsg{Percent: percent, Written: written, Total: total})
	})
	eng.OnStatus(func(status entity.UpdateStatus, err entity.UpdateError) {
		p.Send(model.StatusMsg{Status: status, Err: err})
	})
}

func versionLabel(info build.Info) string {
	if info.IsDev() {
		return "dev"
	}
	return info.Current()
}
