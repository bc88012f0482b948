// Package model contains the bubbletea models used by CLI commands.
package model

import (
	"context"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/flashota/internal/cli/styles"
	"github.com/bnema/flashota/internal/domain/entity"
)

// UpdateEngine is the part of the update engine the update screen drives.
type UpdateEngine interface {
	CheckForUpdates(ctx context.Context) bool
	StartUpdate(ctx context.Context) bool
	CancelUpdate()
	Status() entity.UpdateStatus
	LastError() entity.UpdateError
	LastErrorDetail() error
	LatestRelease() (entity.ReleaseInfo, bool)
}

// UpdateOptions configure the update screen.
type UpdateOptions struct {
	// CurrentVersion is the running firmware version.
	CurrentVersion string
	// Dev marks an unversioned build.
	Dev bool
	// AutoConfirm installs without asking.
	AutoConfirm bool
	// CheckOnly stops after the check.
	CheckOnly bool
}

type updatePhase int

const (
	phaseChecking updatePhase = iota
	phaseConfirm
	phaseDownloading
	phaseFlashing
	phaseDone
)

// ProgressMsg carries engine download progress into the program.
type ProgressMsg struct {
	Percent int
	Written uint64
	Total   uint64
}

// StatusMsg carries an engine state transition into the program.
type StatusMsg struct {
	Status entity.UpdateStatus
	Err    entity.UpdateError
}

type checkDoneMsg struct{ available bool }

type installDoneMsg struct{ ok bool }

// UpdateModel checks for a release, asks for confirmation and installs it.
type UpdateModel struct {
	ctx      context.Context
	engine   UpdateEngine
	renderer *styles.UpdateRenderer
	spinner  spinner.Model
	bar      progress.Model
	opts     UpdateOptions

	phase      updatePhase
	header     string
	result     string
	release    entity.ReleaseInfo
	progress   entity.Progress
	cancelling bool
	available  bool
	committed  bool
}

// NewUpdateModel creates the update screen.
func NewUpdateModel(ctx context.Context, engine UpdateEngine, theme *styles.Theme, opts UpdateOptions) UpdateModel {
	renderer := styles.NewUpdateRenderer(theme)
	m := UpdateModel{
		ctx:      ctx,
		engine:   engine,
		renderer: renderer,
		spinner:  styles.NewStyledSpinner(theme),
		bar:      styles.NewStyledProgress(theme),
		opts:     opts,
	}
	if opts.Dev {
		m.header = renderer.RenderDevBuild()
	}
	return m
}

// Init starts the spinner and the release check.
func (m UpdateModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.check())
}

// Committed reports whether a new image was installed.
func (m UpdateModel) Committed() bool {
	return m.committed
}

// Available reports whether the check found a newer release.
func (m UpdateModel) Available() bool {
	return m.available
}

// Update handles key presses, engine messages and animation ticks.
func (m UpdateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		if b, ok := bar.(progress.Model); ok {
			m.bar = b
		}
		return m, cmd

	case ProgressMsg:
		m.progress = entity.Progress{Percent: msg.Percent, BytesWritten: msg.Written, TotalBytes: msg.Total}
		return m, m.bar.SetPercent(float64(msg.Percent) / 100)

	case StatusMsg:
		if msg.Status == entity.UpdateStatusFlashing && m.phase == phaseDownloading {
			m.phase = phaseFlashing
		}
		return m, nil

	case checkDoneMsg:
		return m.handleCheck(msg)

	case installDoneMsg:
		return m.handleInstall(msg)
	}

	return m, nil
}

func (m UpdateModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.phase {
	case phaseConfirm:
		switch key {
		case "y", "Y", "enter":
			m.phase = phaseDownloading
			return m, m.install()
		case "n", "N", "q", "esc", "ctrl+c":
			return m.finish(m.renderer.RenderCancelled())
		}
	case phaseChecking, phaseDownloading:
		if key == "q" || key == "ctrl+c" || key == "esc" {
			m.cancelling = true
			m.engine.CancelUpdate()
		}
	case phaseFlashing:
		// The commit is short and must not be interrupted.
	case phaseDone:
		return m, tea.Quit
	}
	return m, nil
}

func (m UpdateModel) handleCheck(msg checkDoneMsg) (tea.Model, tea.Cmd) {
	if m.cancelling {
		return m.finish(m.renderer.RenderCancelled())
	}
	if m.engine.Status() == entity.UpdateStatusError {
		return m.finish(m.renderer.RenderFailure(m.engine.LastError(), m.engine.LastErrorDetail()))
	}
	if !msg.available {
		return m.finish(m.renderer.RenderUpToDate(m.opts.CurrentVersion))
	}

	m.available = true
	m.release, _ = m.engine.LatestRelease()
	m.header += m.renderer.RenderAvailable(m.opts.CurrentVersion, m.release)

	switch {
	case m.opts.CheckOnly:
		return m.finish("")
	case m.opts.AutoConfirm:
		m.phase = phaseDownloading
		return m, m.install()
	default:
		m.phase = phaseConfirm
		return m, nil
	}
}

func (m UpdateModel) handleInstall(msg installDoneMsg) (tea.Model, tea.Cmd) {
	if msg.ok {
		m.committed = true
		written := m.progress.BytesWritten
		if written == 0 {
			written = m.release.FileSize
		}
		return m.finish(m.renderer.RenderSuccess(m.release.Version, written))
	}
	if m.cancelling || m.engine.Status() == entity.UpdateStatusIdle {
		return m.finish(m.renderer.RenderCancelled())
	}
	return m.finish(m.renderer.RenderFailure(m.engine.LastError(), m.engine.LastErrorDetail()))
}

func (m UpdateModel) finish(result string) (tea.Model, tea.Cmd) {
	m.phase = phaseDone
	m.result = result
	return m, tea.Quit
}

// View renders the current phase.
func (m UpdateModel) View() string {
	switch m.phase {
	case phaseChecking:
		if m.cancelling {
			return m.header + m.renderer.RenderCancelling(m.spinner.View())
		}
		return m.header + m.renderer.RenderChecking(m.spinner.View())
	case phaseConfirm:
		return m.header + m.renderer.RenderConfirm()
	case phaseDownloading:
		if m.cancelling {
			return m.header + m.renderer.RenderCancelling(m.spinner.View())
		}
		return m.header + m.renderer.RenderDownloading(m.bar.View(), m.release.Version, m.progress)
	case phaseFlashing:
		return m.header + m.renderer.RenderFlashing(m.spinner.View())
	default:
		return m.header + m.result
	}
}

func (m UpdateModel) check() tea.Cmd {
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		return checkDoneMsg{available: engine.CheckForUpdates(ctx)}
	}
}

func (m UpdateModel) install() tea.Cmd {
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		return installDoneMsg{ok: engine.StartUpdate(ctx)}
	}
}
