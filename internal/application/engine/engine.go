// Package engine hosts the update state machine shared by the CLI and the daemon.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/application/usecase"
	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/bnema/flashota/internal/logging"
)

// Checker runs one release check.
type Checker interface {
	Execute(ctx context.Context, input usecase.CheckUpdateInput) (*usecase.CheckUpdateOutput, error)
}

// Installer downloads and commits one release.
type Installer interface {
	Execute(ctx context.Context, input usecase.ApplyUpdateInput) (*usecase.ApplyUpdateOutput, error)
}

// ProgressFunc receives download progress.
type ProgressFunc func(percent int, written, total uint64)

// StatusFunc receives every state transition with its error (UpdateErrorNone unless status is Error).
type StatusFunc func(status entity.UpdateStatus, err entity.UpdateError)

// Deps are the collaborators of the engine.
type Deps struct {
	Checker   Checker
	Installer Installer
	Versions  port.VersionSource
	// Journal is optional; when nil sessions are not recorded.
	Journal port.SessionJournal
}

// Options tune the engine. The zero value is usable.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to uuid.NewString.
	NewID func() string
}

// Engine is the OTA update state machine. Sessions run synchronously on the
// caller's goroutine; CancelUpdate and the getters may be called concurrently.
type Engine struct {
	deps Deps
	now  func() time.Time
	id   func() string

	sem *semaphore.Weighted

	mu         sync.Mutex
	status     entity.UpdateStatus
	lastErr    entity.UpdateError
	lastDetail error
	progress   entity.Progress
	release    entity.ReleaseInfo
	hasRelease bool
	onProgress ProgressFunc
	onStatus   StatusFunc
	gen        uint64
	cancel     context.CancelFunc
}

// New creates an idle engine.
func New(deps Deps, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{
		deps: deps,
		now:  opts.Now,
		id:   opts.NewID,
		sem:  semaphore.NewWeighted(1),
	}
}

// OnProgress sets the progress callback. nil disables it.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.mu.Lock()
	e.onProgress = fn
	e.mu.Unlock()
}

// OnStatus sets the status callback. nil disables it.
func (e *Engine) OnStatus(fn StatusFunc) {
	e.mu.Lock()
	e.onStatus = fn
	e.mu.Unlock()
}

// CheckForUpdates queries the release source and reports whether a newer
// firmware is available. It returns false without side effects while
// another session is in flight.
func (e *Engine) CheckForUpdates(ctx context.Context) bool {
	if !e.sem.TryAcquire(1) {
		logging.FromContext(ctx).Debug().Msg("check rejected: session already in progress")
		return false
	}
	defer e.sem.Release(1)

	sctx, rep, session := e.beginSession(ctx, entity.SessionKindCheck, func() {
		e.lastErr = entity.UpdateErrorNone
		e.lastDetail = nil
	})
	defer rep.done()

	out, err := e.deps.Checker.Execute(sctx, usecase.CheckUpdateInput{Reporter: rep})

	e.mu.Lock()
	live := rep.gen == e.gen
	if live {
		if out != nil && out.Release.IsValid() {
			e.release = out.Release
			e.hasRelease = true
		}
		if err != nil {
			e.lastDetail = err
		}
	}
	e.mu.Unlock()

	if out != nil {
		session.TargetVersion = out.Release.Version
	}
	e.finishSession(ctx, rep, session)

	return live && err == nil && out != nil && out.UpdateAvailable
}

// StartUpdate installs the release found by the last check. It is only valid
// while the status is Available and returns false otherwise. On success the
// new image is committed and the host must restart the device itself.
func (e *Engine) StartUpdate(ctx context.Context) bool {
	log := logging.FromContext(ctx)

	if !e.sem.TryAcquire(1) {
		log.Debug().Msg("update rejected: session already in progress")
		return false
	}
	defer e.sem.Release(1)

	e.mu.Lock()
	ready := e.status == entity.UpdateStatusAvailable && e.hasRelease
	release := e.release
	e.mu.Unlock()
	if !ready {
		log.Warn().Str("status", e.Status().String()).Msg("update rejected: no update available")
		return false
	}

	sctx, rep, session := e.beginSession(ctx, entity.SessionKindInstall, nil)
	defer rep.done()
	session.TargetVersion = release.Version

	out, err := e.deps.Installer.Execute(sctx, usecase.ApplyUpdateInput{Release: release, Reporter: rep})

	e.mu.Lock()
	live := rep.gen == e.gen
	if live && err != nil {
		e.lastDetail = err
	}
	e.mu.Unlock()

	if out != nil {
		session.BytesWritten = out.BytesWritten
		session.TotalBytes = out.TotalBytes
	}
	e.finishSession(ctx, rep, session)

	return live && err == nil && out != nil && out.Success
}

// CancelUpdate aborts a session that is checking or downloading and returns
// the engine to Idle. Later transitions of the cancelled session are dropped.
// It is a no-op in any other state.
func (e *Engine) CancelUpdate() {
	e.mu.Lock()
	if e.status != entity.UpdateStatusChecking && e.status != entity.UpdateStatusDownloading {
		e.mu.Unlock()
		return
	}
	e.abortLocked()
	e.status = entity.UpdateStatusIdle
	e.progress = entity.Progress{}
	cb := e.onStatus
	e.mu.Unlock()

	if cb != nil {
		cb(entity.UpdateStatusIdle, entity.UpdateErrorNone)
	}
}

// Reset returns the engine to Idle with no error, release or progress.
// An active session is cancelled first.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.abortLocked()
	e.status = entity.UpdateStatusIdle
	e.lastErr = entity.UpdateErrorNone
	e.lastDetail = nil
	e.progress = entity.Progress{}
	e.release = entity.ReleaseInfo{}
	e.hasRelease = false
	e.mu.Unlock()
}

// Close cancels any active session and drops both callbacks.
func (e *Engine) Close() {
	e.mu.Lock()
	e.abortLocked()
	e.onProgress = nil
	e.onStatus = nil
	e.mu.Unlock()
}

// Status returns the current state.
func (e *Engine) Status() entity.UpdateStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LastError returns the sticky error kind.
func (e *Engine) LastError() entity.UpdateError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LastErrorDetail returns the underlying error of the last failed session, if any.
func (e *Engine) LastErrorDetail() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDetail
}

// Progress returns download progress. It is zero outside Downloading and Flashing.
func (e *Engine) Progress() entity.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.status.InProgress() {
		return entity.Progress{}
	}
	return e.progress
}

// LatestRelease returns the release kept from the last successful parse.
func (e *Engine) LatestRelease() (entity.ReleaseInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.release, e.hasRelease
}

// IsUpdateAvailable reports whether the engine is waiting in Available.
func (e *Engine) IsUpdateAvailable() bool {
	return e.Status() == entity.UpdateStatusAvailable
}

// StatusMessage returns a human readable description of the current state.
func (e *Engine) StatusMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.status {
	case entity.UpdateStatusIdle:
		return "Ready"
	case entity.UpdateStatusChecking:
		return "Checking for updates..."
	case entity.UpdateStatusAvailable:
		return "Update available: " + e.release.Version
	case entity.UpdateStatusNoUpdate:
		return "No updates available"
	case entity.UpdateStatusDownloading:
		return "Downloading firmware..."
	case entity.UpdateStatusFlashing:
		return "Installing update..."
	case entity.UpdateStatusSuccess:
		return "Update successful! Restart required."
	case entity.UpdateStatusError:
		return e.lastErr.Message()
	default:
		return "Unknown status"
	}
}

// beginSession opens a new generation. prepare runs under the lock.
func (e *Engine) beginSession(
	ctx context.Context,
	kind entity.SessionKind,
	prepare func(),
) (context.Context, *sessionReporter, *entity.UpdateSession) {
	sctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.gen++
	e.cancel = cancel
	e.progress = entity.Progress{}
	if prepare != nil {
		prepare()
	}
	gen := e.gen
	e.mu.Unlock()

	session := &entity.UpdateSession{
		ID:        entity.SessionID(e.id()),
		Kind:      kind,
		StartedAt: e.now().UTC(),
	}
	if e.deps.Versions != nil {
		session.CurrentVersion = e.deps.Versions.Current()
	}

	sctx = logging.WithSession(sctx, session.ShortID(), string(kind))

	return sctx, &sessionReporter{engine: e, gen: gen, cancel: cancel}, session
}

// finishSession records the outcome of a session in the journal.
func (e *Engine) finishSession(ctx context.Context, rep *sessionReporter, session *entity.UpdateSession) {
	e.mu.Lock()
	status, lastErr := entity.UpdateStatusIdle, entity.UpdateErrorNone
	if rep.gen == e.gen {
		status = e.status
		if status == entity.UpdateStatusError {
			lastErr = e.lastErr
		}
	}
	e.mu.Unlock()

	session.End(e.now(), status, lastErr)

	log := logging.FromContext(ctx)
	log.Debug().
		Str("session", session.ShortID()).
		Str("status", status.String()).
		Str("error", lastErr.String()).
		Dur("duration", session.Duration()).
		Msg("session finished")

	if e.deps.Journal == nil {
		return
	}
	if err := e.deps.Journal.Record(context.WithoutCancel(ctx), session); err != nil {
		log.Warn().Err(err).Str("session", session.ShortID()).Msg("failed to record update session")
	}
}

// abortLocked invalidates the current generation and cancels its context.
func (e *Engine) abortLocked() {
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) transition(gen uint64, status entity.UpdateStatus, err entity.UpdateError) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.status = status
	if err != entity.UpdateErrorNone {
		e.lastErr = err
	}
	cb := e.onStatus
	e.mu.Unlock()

	if cb != nil {
		cb(status, err)
	}
}

func (e *Engine) report(gen uint64, p entity.Progress) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.progress = p
	cb := e.onProgress
	e.mu.Unlock()

	if cb != nil {
		cb(p.Percent, p.BytesWritten, p.TotalBytes)
	}
}

// sessionReporter binds use case transitions to one engine generation.
type sessionReporter struct {
	engine *Engine
	gen    uint64
	cancel context.CancelFunc
}

func (r *sessionReporter) SetStatus(status entity.UpdateStatus, err entity.UpdateError) {
	r.engine.transition(r.gen, status, err)
}

func (r *sessionReporter) SetProgress(p entity.Progress) {
	r.engine.report(r.gen, p)
}

// done releases the session context once the session returns.
func (r *sessionReporter) done() {
	r.cancel()
	r.engine.mu.Lock()
	if r.gen == r.engine.gen {
		r.engine.cancel = nil
	}
	r.engine.mu.Unlock()
}
