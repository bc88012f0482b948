package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/flashota/internal/cli/model"
	"github.com/bnema/flashota/internal/domain/entity"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a newer firmware is published",
	Long: `Query the release source and compare the published version with the
running one. Nothing is downloaded.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output as JSON")
}

// checkResult is the JSON document printed by check --json.
type checkResult struct {
	Current   string       `json:"current_version"`
	Available bool         `json:"update_available"`
	Status    string       `json:"status"`
	Error     string       `json:"error,omitempty"`
	Detail    string       `json:"detail,omitempty"`
	Release   *releaseJSON `json:"release,omitempty"`
}

type releaseJSON struct {
	Version     string `json:"version"`
	AssetName   string `json:"asset_name"`
	DownloadURL string `json:"download_url"`
	FileSize    uint64 `json:"file_size"`
	Changelog   string `json:"changelog,omitempty"`
}

func runCheck(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	eng, err := app.NewEngine()
	if err != nil {
		return fmt.Errorf("build update engine: %w", err)
	}
	defer eng.Close()

	if checkJSON {
		available := eng.CheckForUpdates(app.Ctx())
		out := checkResult{
			Current:   versionLabel(app.BuildInfo),
			Available: available,
			Status:    eng.Status().String(),
		}
		if kind := eng.LastError(); kind != entity.UpdateErrorNone {
			out.Error = kind.String()
		}
		if detail := eng.LastErrorDetail(); detail != nil {
			out.Detail = detail.Error()
		}
		if rel, ok := eng.LatestRelease(); ok {
			out.Release = &releaseJSON{
				Version:     rel.Version,
				AssetName:   rel.AssetName,
				DownloadURL: rel.DownloadURL,
				FileSize:    rel.FileSize,
				Changelog:   rel.Changelog,
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	m := model.NewUpdateModel(app.Ctx(), eng, app.Theme, model.UpdateOptions{
		CurrentVersion: versionLabel(app.BuildInfo),
		Dev:            app.BuildInfo.IsDev(),
		CheckOnly:      true,
	})
	p := tea.NewProgram(m)
	forwardEngineEvents(eng, p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	return nil
}
