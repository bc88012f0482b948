// Package port defines interfaces for external dependencies.
package port

//go:generate mockgen -source=updater.go -destination=mocks/mock_updater.go

import (
	"context"
	"errors"
	"io"

	"github.com/bnema/flashota/internal/domain/entity"
)

var (
	// ErrFlashBegin is returned when the flash target cannot open a write transaction.
	ErrFlashBegin = errors.New("flash begin failed")
	// ErrFlashCommit is returned when a fully written image cannot be committed.
	ErrFlashCommit = errors.New("flash commit failed")
	// ErrShortWrite is returned when the flash target accepts fewer bytes than offered.
	ErrShortWrite = errors.New("flash short write")
	// ErrNoContentLength is returned when the firmware response does not declare its size.
	ErrNoContentLength = errors.New("firmware response has no content length")
	// ErrUnexpectedStatus is returned when a remote answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected http status")
	// ErrIncompleteDownload is returned when the stream ends before the declared size.
	ErrIncompleteDownload = errors.New("incomplete firmware download")
)

// Connectivity reports and resets the device network link.
type Connectivity interface {
	// IsUp reports whether the network is usable right now.
	IsUp(ctx context.Context) bool

	// Reset drops and re-establishes the low-level transport so that its
	// internal buffers are returned. Best effort, never fails.
	Reset(ctx context.Context)
}

// FlashWriter is a begin/write/commit transaction against program storage.
type FlashWriter interface {
	// Begin opens a write transaction for an image of exactly size bytes.
	Begin(size int64) error

	// Write appends p to the open transaction and returns how many bytes were stored.
	Write(p []byte) (int, error)

	// Commit finalizes the transaction and marks the image bootable.
	Commit() error

	// Abort discards an open transaction. It is a no-op when none is open.
	Abort() error
}

// StorageInfo reports how much space the flash target can accept.
type StorageInfo interface {
	FreeInstallableSpace() (uint64, error)
}

// VersionSource provides the version of the running firmware.
type VersionSource interface {
	Current() string
}

// MemoryReclaimer returns fragmented memory to usable pools before a
// TLS-heavy operation. It has no failure mode.
type MemoryReclaimer interface {
	Reclaim(ctx context.Context)
}

// ScratchAllocator hands out the chunk buffer used by the download loop.
type ScratchAllocator interface {
	// Scratch returns a buffer and the function that releases it.
	Scratch() (buf []byte, release func())
}

// ReleaseFetcher obtains the raw release document.
type ReleaseFetcher interface {
	// Fetch returns the release JSON for ownerRepo ("owner/repo"), or nil
	// when every strategy failed.
	Fetch(ctx context.Context, ownerRepo string) []byte
}

// ReleaseParser turns a raw release document into a ReleaseInfo.
type ReleaseParser interface {
	Parse(ctx context.Context, raw []byte) entity.ReleaseInfo
}

// FirmwareStream is an open firmware response body with its declared length.
type FirmwareStream struct {
	Body          io.ReadCloser
	ContentLength int64
}

// FirmwareStreamer opens the streaming download of a firmware image.
type FirmwareStreamer interface {
	// Open issues the GET for url. The caller owns the returned body.
	Open(ctx context.Context, url string) (*FirmwareStream, error)
}

// Watchdog is serviced by the engine between download chunks.
type Watchdog interface {
	Kick()
}

// SessionJournal records the outcome of engine sessions.
type SessionJournal interface {
	Record(ctx context.Context, session *entity.UpdateSession) error
	Recent(ctx context.Context, limit int) ([]*entity.UpdateSession, error)
}

// StatusReporter is the engine-owned sink use cases drive the state machine through.
type StatusReporter interface {
	// SetStatus records a transition and notifies the host once.
	SetStatus(status entity.UpdateStatus, err entity.UpdateError)

	// SetProgress records download progress and notifies the host.
	SetProgress(progress entity.Progress)
}
