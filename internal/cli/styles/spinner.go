package styles

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

const progressWidth = 40

// NewStyledSpinner creates a themed dot spinner.
func NewStyledSpinner(theme *Theme) spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Accent)
	return s
}

// NewStyledProgress creates a themed progress bar.
func NewStyledProgress(theme *Theme) progress.Model {
	return progress.New(
		progress.WithSolidFill(string(theme.Accent)),
		progress.WithWidth(progressWidth),
	)
}
