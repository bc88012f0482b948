package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/bnema/flashota/internal/domain/entity"
)

// UpdateRenderer renders update status messages with styled output.
type UpdateRenderer struct {
	theme *Theme
}

// NewUpdateRenderer creates a new update renderer with the given theme.
func NewUpdateRenderer(theme *Theme) *UpdateRenderer {
	return &UpdateRenderer{theme: theme}
}

// RenderChecking renders the "checking for updates" message.
func (*UpdateRenderer) RenderChecking(spinner string) string {
	return fmt.Sprintf("\n  %s Checking for updates...\n", spinner)
}

// RenderUpToDate renders the "already up to date" message.
func (r *UpdateRenderer) RenderUpToDate(version string) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Success)

	return fmt.Sprintf(
		"\n  %s No updates available (%s)\n",
		iconStyle.Render(IconCheck),
		r.theme.Highlight.Render(version),
	)
}

// RenderAvailable renders the "update available" message with the release notes.
func (r *UpdateRenderer) RenderAvailable(current string, release entity.ReleaseInfo) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Accent)
	versionStyle := r.theme.Highlight

	out := fmt.Sprintf(
		"\n  %s Update available: %s %s %s\n     %s %s\n",
		iconStyle.Render(IconRocket),
		versionStyle.Render(current),
		iconStyle.Render(IconArrow),
		versionStyle.Render(release.Version),
		r.theme.Subtle.Render(release.AssetName),
		r.theme.BadgeMuted.Render(formatSize(release.FileSize)),
	)
	if release.Changelog != "" {
		notes := lipgloss.NewStyle().
			Foreground(r.theme.Muted).
			MarginLeft(5).
			Width(72).
			Render(release.Changelog)
		out += "\n" + notes + "\n"
	}
	return out
}

// RenderConfirm renders the install prompt.
func (r *UpdateRenderer) RenderConfirm() string {
	return fmt.Sprintf(
		"\n  %s Install now? %s\n",
		lipgloss.NewStyle().Foreground(r.theme.Warning).Render(IconWarning),
		r.theme.Subtle.Render("[y/N]"),
	)
}

// RenderCancelling renders the message shown while a session is being aborted.
func (*UpdateRenderer) RenderCancelling(spinner string) string {
	return fmt.Sprintf("\n  %s Cancelling...\n", spinner)
}

// RenderDownloading renders the download line with a progress bar.
func (r *UpdateRenderer) RenderDownloading(bar, version string, p entity.Progress) string {
	return fmt.Sprintf(
		"\n  %s Downloading %s\n  %s %s\n",
		lipgloss.NewStyle().Foreground(r.theme.Accent).Render(IconChip),
		r.theme.Highlight.Render(version),
		bar,
		r.theme.Subtle.Render(fmt.Sprintf("%s / %s", humanize.IBytes(p.BytesWritten), formatSize(p.TotalBytes))),
	)
}

// RenderFlashing renders the "installing" message.
func (*UpdateRenderer) RenderFlashing(spinner string) string {
	return fmt.Sprintf("\n  %s Installing update...\n", spinner)
}

// RenderSuccess renders the committed-update message.
func (r *UpdateRenderer) RenderSuccess(version string, written uint64) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Success)

	return fmt.Sprintf(
		"\n  %s Update %s installed (%s)\n  %s Restart required to run the new firmware\n",
		iconStyle.Render(IconCheck),
		r.theme.Highlight.Render(version),
		humanize.IBytes(written),
		lipgloss.NewStyle().Foreground(r.theme.Warning).Render(IconRestart),
	)
}

// RenderCancelled renders the message shown after the user aborts a download.
func (r *UpdateRenderer) RenderCancelled() string {
	return fmt.Sprintf(
		"\n  %s Update cancelled, the running firmware is unchanged\n",
		lipgloss.NewStyle().Foreground(r.theme.Warning).Render(IconStop),
	)
}

// RenderFailure renders an engine error kind with its detail.
func (r *UpdateRenderer) RenderFailure(kind entity.UpdateError, detail error) string {
	msg := kind.Message()
	if detail != nil {
		msg = fmt.Sprintf("%s: %v", msg, detail)
	}
	return r.RenderError(fmt.Errorf("%s", msg))
}

// RenderError renders an error message.
func (r *UpdateRenderer) RenderError(err error) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Error)

	return fmt.Sprintf(
		"\n  %s Update failed: %v\n",
		iconStyle.Render(IconX),
		err,
	)
}

// RenderDevBuild renders the warning shown when the running version is unknown.
func (r *UpdateRenderer) RenderDevBuild() string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Warning)
	return fmt.Sprintf(
		"\n  %s Development build: any published release is considered newer\n",
		iconStyle.Render(IconInfo),
	)
}

func formatSize(n uint64) string {
	if n == 0 {
		return "unknown size"
	}
	return humanize.IBytes(n)
}
