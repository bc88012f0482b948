package styles

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bnema/flashota/internal/domain/entity"
)

// HistoryRenderer renders the update journal for `flashota history`.
type HistoryRenderer struct {
	theme *Theme
	now   func() time.Time
}

func NewHistoryRenderer(theme *Theme) *HistoryRenderer {
	return &HistoryRenderer{theme: theme, now: time.Now}
}

func (r *HistoryRenderer) RenderEmpty() string {
	return r.theme.Subtle.Render("No update sessions recorded yet.")
}

func (r *HistoryRenderer) RenderList(sessions []*entity.UpdateSession, limit int) string {
	if len(sessions) == 0 {
		return r.RenderEmpty()
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s", r.theme.Highlight.Render(IconClock), r.theme.Title.Render("Update history")))
	if limit > 0 {
		b.WriteString(r.theme.Subtle.Render(fmt.Sprintf(" (showing up to %d)", limit)))
	}
	b.WriteString("\n\n")

	for _, s := range sessions {
		b.WriteString(r.renderOne(s))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *HistoryRenderer) renderOne(s *entity.UpdateSession) string {
	icon, iconStyle := IconInfo, r.theme.Subtle
	switch {
	case s.IsActive():
		icon, iconStyle = IconClock, r.theme.WarningStyle
	case s.Status == entity.UpdateStatusError:
		icon, iconStyle = IconX, r.theme.ErrorStyle
	case s.Status == entity.UpdateStatusIdle:
		icon, iconStyle = IconStop, r.theme.WarningStyle
	case s.Status == entity.UpdateStatusSuccess, s.Status == entity.UpdateStatusAvailable:
		icon, iconStyle = IconCheck, r.theme.SuccessStyle
	}

	outcome := s.Status.String()
	if s.Status == entity.UpdateStatusError {
		outcome = s.Error.Message()
	}

	versions := s.CurrentVersion
	if s.TargetVersion != "" {
		versions = fmt.Sprintf("%s %s %s", s.CurrentVersion, IconArrow, s.TargetVersion)
	}

	line := fmt.Sprintf("%s %s  %s  %s  %s",
		iconStyle.Render(icon),
		r.theme.Highlight.Render(s.ShortID()),
		r.theme.BadgeMuted.Render(string(s.Kind)),
		r.theme.Normal.Render(versions),
		iconStyle.Render(outcome),
	)

	if s.Kind == entity.SessionKindInstall && s.TotalBytes > 0 {
		line += r.theme.Subtle.Render(fmt.Sprintf("  %s / %s",
			humanize.IBytes(s.BytesWritten), humanize.IBytes(s.TotalBytes)))
	}

	when := humanize.RelTime(s.StartedAt, r.now(), "ago", "from now")
	if d := s.Duration(); d > 0 {
		when = fmt.Sprintf("%s, took %s", when, d.Round(time.Millisecond))
	}
	return line + "  " + r.theme.Subtle.Render(when)
}

func (r *HistoryRenderer) RenderError(err error) string {
	return fmt.Sprintf("%s %v", r.theme.ErrorStyle.Render(IconX), err)
}
