package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/bnema/flashota/internal/logging"
)

// ErrInsufficientSpace is returned when the flash target is smaller than the release.
var ErrInsufficientSpace = errors.New("insufficient space for firmware")

// ApplyUpdateInput holds the input for the apply update use case.
type ApplyUpdateInput struct {
	// Release is the release selected by the last successful check.
	Release entity.ReleaseInfo
	// Reporter receives state transitions and progress.
	Reporter port.StatusReporter
}

// ApplyUpdateOutput holds the result of the update application.
type ApplyUpdateOutput struct {
	// Success is true once the image is committed.
	Success bool
	// BytesWritten is the number of bytes handed to the flash target.
	BytesWritten uint64
	// TotalBytes is the declared content length of the firmware.
	TotalBytes uint64
	// Error classifies the failure, UpdateErrorNone on success.
	Error entity.UpdateError
}

// ApplyUpdateUseCase streams a firmware image into a flash write transaction.
type ApplyUpdateUseCase struct {
	storage   port.StorageInfo
	streamer  port.FirmwareStreamer
	flash     port.FlashWriter
	reclaimer port.MemoryReclaimer
	scratch   port.ScratchAllocator
	watchdog  port.Watchdog
}

// NewApplyUpdateUseCase creates a new apply update use case.
func NewApplyUpdateUseCase(
	storage port.StorageInfo,
	streamer port.FirmwareStreamer,
	flash port.FlashWriter,
	reclaimer port.MemoryReclaimer,
	scratch port.ScratchAllocator,
	watchdog port.Watchdog,
) *ApplyUpdateUseCase {
	return &ApplyUpdateUseCase{
		storage:   storage,
		streamer:  streamer,
		flash:     flash,
		reclaimer: reclaimer,
		scratch:   scratch,
		watchdog:  watchdog,
	}
}

// Execute downloads input.Release and commits it to flash.
func (uc *ApplyUpdateUseCase) Execute(ctx context.Context, input ApplyUpdateInput) (*ApplyUpdateOutput, error) {
	log := logging.FromContext(ctx)
	report := input.Reporter
	release := input.Release
	out := &ApplyUpdateOutput{}

	fail := func(kind entity.UpdateError, err error) (*ApplyUpdateOutput, error) {
		out.Error = kind
		report.SetStatus(entity.UpdateStatusError, kind)
		return out, err
	}

	free, err := uc.storage.FreeInstallableSpace()
	if err != nil {
		log.Error().Err(err).Msg("failed to query installable space")
		return fail(entity.UpdateErrorInsufficientSpace, fmt.Errorf("%w: %w", ErrInsufficientSpace, err))
	}
	if free < release.FileSize {
		log.Error().
			Uint64("required", release.FileSize).
			Uint64("free", free).
			Msg("not enough space for firmware")
		return fail(entity.UpdateErrorInsufficientSpace,
			fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientSpace, release.FileSize, free))
	}

	report.SetStatus(entity.UpdateStatusDownloading, entity.UpdateErrorNone)
	report.SetProgress(entity.NewProgress(0, release.FileSize))

	uc.reclaimer.Reclaim(ctx)

	log.Info().Str("url", release.DownloadURL).Str("version", release.Version).Msg("downloading firmware")

	stream, err := uc.streamer.Open(ctx, release.DownloadURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to open firmware stream")
		return fail(entity.UpdateErrorDownloadFailed, fmt.Errorf("open firmware stream: %w", err))
	}
	defer func() { _ = stream.Body.Close() }()

	if stream.ContentLength <= 0 {
		log.Error().Int64("content_length", stream.ContentLength).Msg("invalid content length")
		return fail(entity.UpdateErrorDownloadFailed, port.ErrNoContentLength)
	}
	total := uint64(stream.ContentLength)
	out.TotalBytes = total

	if release.FileSize != 0 && total != release.FileSize {
		log.Warn().
			Uint64("expected", release.FileSize).
			Uint64("declared", total).
			Msg("firmware size mismatch")
	}

	if err := uc.flash.Begin(stream.ContentLength); err != nil {
		log.Error().Err(err).Msg("flash begin failed")
		return fail(entity.UpdateErrorDownloadFailed, fmt.Errorf("%w: %w", port.ErrFlashBegin, err))
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if abortErr := uc.flash.Abort(); abortErr != nil {
			log.Warn().Err(abortErr).Msg("failed to abort flash transaction")
		}
	}()

	written, err := uc.copyChunks(ctx, stream.Body, total, report)
	out.BytesWritten = written
	if err != nil {
		return fail(entity.UpdateErrorDownloadFailed, err)
	}

	if written != total {
		log.Error().Uint64("written", written).Uint64("total", total).Msg("download incomplete")
		return fail(entity.UpdateErrorDownloadFailed,
			fmt.Errorf("%w: %d/%d bytes", port.ErrIncompleteDownload, written, total))
	}

	report.SetStatus(entity.UpdateStatusFlashing, entity.UpdateErrorNone)

	if err := uc.flash.Commit(); err != nil {
		log.Error().Err(err).Msg("flash commit failed; re-verify the running image before trusting it")
		return fail(entity.UpdateErrorFlashFailed, fmt.Errorf("%w: %w", port.ErrFlashCommit, err))
	}
	committed = true

	log.Info().Uint64("bytes", written).Str("version", release.Version).Msg("firmware committed, restart required")

	out.Success = true
	report.SetStatus(entity.UpdateStatusSuccess, entity.UpdateErrorNone)
	return out, nil
}

// copyChunks moves body into the flash transaction one scratch buffer at a time.
// It stops at EOF, on a read error (connection closed), or once total bytes are written.
func (uc *ApplyUpdateUseCase) copyChunks(
	ctx context.Context,
	body io.Reader,
	total uint64,
	report port.StatusReporter,
) (uint64, error) {
	log := logging.FromContext(ctx)

	buf, release := uc.scratch.Scratch()
	defer release()

	var written uint64
	for written < total {
		chunk := buf
		if remaining := total - written; remaining < uint64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, readErr := body.Read(chunk)
		if n > 0 {
			stored, err := uc.flash.Write(chunk[:n])
			if err != nil || stored != n {
				log.Error().Err(err).Int("read", n).Int("stored", stored).Msg("flash write error")
				if err == nil {
					return written, port.ErrShortWrite
				}
				return written, fmt.Errorf("%w: %w", port.ErrShortWrite, err)
			}
			written += uint64(stored)
			report.SetProgress(entity.NewProgress(written, total))
			uc.watchdog.Kick()
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				log.Warn().Err(readErr).Uint64("written", written).Msg("firmware stream closed")
			}
			break
		}
	}
	return written, nil
}
