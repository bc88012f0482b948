package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/flashota/internal/cli/styles"
	"github.com/bnema/flashota/internal/domain/entity"
)

var (
	historyJSON  bool
	historyLimit int
)

const defaultHistoryLimit = 20

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent update sessions",
	Long:  `List recorded check and install sessions, newest first.`,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", defaultHistoryLimit, "maximum sessions to show")
}

// historyEntry is the JSON form of one session.
type historyEntry struct {
	ID             string     `json:"id"`
	Kind           string     `json:"kind"`
	CurrentVersion string     `json:"current_version"`
	TargetVersion  string     `json:"target_version,omitempty"`
	Status         string     `json:"status"`
	Error          string     `json:"error,omitempty"`
	BytesWritten   uint64     `json:"bytes_written"`
	TotalBytes     uint64     `json:"total_bytes"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

func runHistory(_ *cobra.Command, _ []string) error {
	app := GetApp()
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	renderer := styles.NewHistoryRenderer(app.Theme)
	sessions, err := app.Journal.Recent(app.Ctx(), historyLimit)
	if err != nil {
		if historyJSON {
			return fmt.Errorf("load history: %w", err)
		}
		fmt.Print(renderer.RenderError(err))
		return nil
	}

	if historyJSON {
		return writeHistoryJSON(sessions)
	}

	if len(sessions) == 0 {
		fmt.Print(renderer.RenderEmpty())
		return nil
	}
	fmt.Print(renderer.RenderList(sessions, historyLimit))
	return nil
}

func writeHistoryJSON(sessions []*entity.UpdateSession) error {
	entries := make([]historyEntry, 0, len(sessions))
	for _, s := range sessions {
		e := historyEntry{
			ID:             string(s.ID),
			Kind:           string(s.Kind),
			CurrentVersion: s.CurrentVersion,
			TargetVersion:  s.TargetVersion,
			Status:         s.Status.String(),
			BytesWritten:   s.BytesWritten,
			TotalBytes:     s.TotalBytes,
			StartedAt:      s.StartedAt,
			EndedAt:        s.EndedAt,
		}
		if s.Error != entity.UpdateErrorNone {
			e.Error = s.Error.String()
		}
		entries = append(entries, e)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
