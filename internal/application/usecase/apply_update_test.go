package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/bnema/flashota/internal/application/port"
	mock_port "github.com/bnema/flashota/internal/application/port/mocks"
	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const firmwareURL = "https://example.com/fw.bin"

type applyFixture struct {
	storage   *mock_port.MockStorageInfo
	streamer  *mock_port.MockFirmwareStreamer
	flash     *mock_port.MockFlashWriter
	reclaimer *mock_port.MockMemoryReclaimer
	scratch   *mock_port.MockScratchAllocator
	watchdog  *mock_port.MockWatchdog
	released  int
	uc        *ApplyUpdateUseCase
}

func newApplyFixture(t *testing.T) *applyFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &applyFixture{
		storage:   mock_port.NewMockStorageInfo(ctrl),
		streamer:  mock_port.NewMockFirmwareStreamer(ctrl),
		flash:     mock_port.NewMockFlashWriter(ctrl),
		reclaimer: mock_port.NewMockMemoryReclaimer(ctrl),
		scratch:   mock_port.NewMockScratchAllocator(ctrl),
		watchdog:  mock_port.NewMockWatchdog(ctrl),
	}
	f.uc = NewApplyUpdateUseCase(f.storage, f.streamer, f.flash, f.reclaimer, f.scratch, f.watchdog)
	return f
}

// expectScratch hands out a buffer of size n and counts releases.
func (f *applyFixture) expectScratch(n int) {
	f.scratch.EXPECT().Scratch().DoAndReturn(func() ([]byte, func()) {
		return make([]byte, n), func() { f.released++ }
	})
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func payload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestApplyUpdateUseCase_Success(t *testing.T) {
	f := newApplyFixture(t)
	data := payload(5000)
	body := &trackedBody{Reader: bytes.NewReader(data)}
	var flashed bytes.Buffer

	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(1<<20), nil)
	f.reclaimer.EXPECT().Reclaim(gomock.Any())
	f.streamer.EXPECT().Open(gomock.Any(), firmwareURL).
		Return(&port.FirmwareStream{Body: body, ContentLength: int64(len(data))}, nil)
	f.flash.EXPECT().Begin(int64(len(data))).Return(nil)
	f.expectScratch(1024)
	f.flash.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return flashed.Write(p)
	}).MinTimes(5)
	f.watchdog.EXPECT().Kick().MinTimes(5)
	f.flash.EXPECT().Commit().Return(nil)

	rep := &recordingReporter{}
	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: uint64(len(data))},
		Reporter: rep,
	})

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, uint64(len(data)), out.BytesWritten)
	assert.Equal(t, uint64(len(data)), out.TotalBytes)
	assert.Equal(t, entity.UpdateErrorNone, out.Error)
	assert.Equal(t, data, flashed.Bytes())
	assert.True(t, body.closed)
	assert.Equal(t, 1, f.released)

	assert.Equal(t, []entity.UpdateStatus{
		entity.UpdateStatusDownloading,
		entity.UpdateStatusFlashing,
		entity.UpdateStatusSuccess,
	}, rep.statuses)

	require.NotEmpty(t, rep.progress)
	assert.Equal(t, 0, rep.progress[0].Percent)
	last := rep.progress[len(rep.progress)-1]
	assert.Equal(t, 100, last.Percent)
	for i := 1; i < len(rep.progress); i++ {
		assert.GreaterOrEqual(t, rep.progress[i].BytesWritten, rep.progress[i-1].BytesWritten)
	}
}

func TestApplyUpdateUseCase_InsufficientSpace(t *testing.T) {
	f := newApplyFixture(t)
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(100), nil)

	rep := &recordingReporter{}
	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: 1000},
		Reporter: rep,
	})

	require.ErrorIs(t, err, ErrInsufficientSpace)
	assert.False(t, out.Success)
	assert.Equal(t, entity.UpdateErrorInsufficientSpace, out.Error)
	assert.Equal(t, []entity.UpdateStatus{entity.UpdateStatusError}, rep.statuses)
}

func TestApplyUpdateUseCase_StorageQueryFails(t *testing.T) {
	f := newApplyFixture(t)
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(0), errors.New("statfs: no such file"))

	rep := &recordingReporter{}
	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: 10},
		Reporter: rep,
	})

	require.ErrorIs(t, err, ErrInsufficientSpace)
	assert.Equal(t, entity.UpdateErrorInsufficientSpace, out.Error)
}

func TestApplyUpdateUseCase_OpenFails(t *testing.T) {
	f := newApplyFixture(t)
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(1<<20), nil)
	f.reclaimer.EXPECT().Reclaim(gomock.Any())
	f.streamer.EXPECT().Open(gomock.Any(), firmwareURL).Return(nil, port.ErrUnexpectedStatus)

	rep := &recordingReporter{}
	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: 10},
		Reporter: rep,
	})

	require.ErrorIs(t, err, port.ErrUnexpectedStatus)
	assert.Equal(t, entity.UpdateErrorDownloadFailed, out.Error)
	assert.Equal(t, []entity.UpdateStatus{entity.UpdateStatusDownloading, entity.UpdateStatusError}, rep.statuses)
}

func TestApplyUpdateUseCase_NoContentLength(t *testing.T) {
	f := newApplyFixture(t)
	body := &trackedBody{Reader: bytes.NewReader(nil)}
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(1<<20), nil)
	f.reclaimer.EXPECT().Reclaim(gomock.Any())
	f.streamer.EXPECT().Open(gomock.Any(), firmwareURL).
		Return(&port.FirmwareStream{Body: body, ContentLength: -1}, nil)

	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL},
		Reporter: &recordingReporter{},
	})

	require.ErrorIs(t, err, port.ErrNoContentLength)
	assert.Equal(t, entity.UpdateErrorDownloadFailed, out.Error)
	assert.True(t, body.closed)
}

func TestApplyUpdateUseCase_BeginFails(t *testing.T) {
	f := newApplyFixture(t)
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(1<<20), nil)
	f.reclaimer.EXPECT().Reclaim(gomock.Any())
	f.streamer.EXPECT().Open(gomock.Any(), firmwareURL).
		Return(&port.FirmwareStream{Body: &trackedBody{Reader: bytes.NewReader(payload(10))}, ContentLength: 10}, nil)
	f.flash.EXPECT().Begin(int64(10)).Return(errors.New("slot busy"))

	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: 10},
		Reporter: &recordingReporter{},
	})

	require.ErrorIs(t, err, port.ErrFlashBegin)
	assert.Equal(t, entity.UpdateErrorDownloadFailed, out.Error)
}

func TestApplyUpdateUseCase_TruncatedStreamAborts(t *testing.T) {
	f := newApplyFixture(t)
	data := payload(3000)
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(1<<20), nil)
	f.reclaimer.EXPECT().Reclaim(gomock.Any())
	f.streamer.EXPECT().Open(gomock.Any(), firmwareURL).
		Return(&port.FirmwareStream{Body: &trackedBody{Reader: bytes.NewReader(data)}, ContentLength: 5000}, nil)
	f.flash.EXPECT().Begin(int64(5000)).Return(nil)
	f.expectScratch(2048)
	f.flash.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	}).AnyTimes()
	f.watchdog.EXPECT().Kick().AnyTimes()
	f.flash.EXPECT().Abort().Return(nil)

	rep := &recordingReporter{}
	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: 5000},
		Reporter: rep,
	})

	require.ErrorIs(t, err, port.ErrIncompleteDownload)
	assert.Equal(t, entity.UpdateErrorDownloadFailed, out.Error)
	assert.Equal(t, uint64(3000), out.BytesWritten)
	assert.Equal(t, 1, f.released)
	assert.NotContains(t, rep.statuses, entity.UpdateStatusFlashing)
	assert.Equal(t, entity.UpdateStatusError, rep.last())
}

func TestApplyUpdateUseCase_ShortWriteAborts(t *testing.T) {
	f := newApplyFixture(t)
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(1<<20), nil)
	f.reclaimer.EXPECT().Reclaim(gomock.Any())
	f.streamer.EXPECT().Open(gomock.Any(), firmwareURL).
		Return(&port.FirmwareStream{Body: &trackedBody{Reader: bytes.NewReader(payload(4096))}, ContentLength: 4096}, nil)
	f.flash.EXPECT().Begin(int64(4096)).Return(nil)
	f.expectScratch(1024)
	f.flash.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p) - 1, nil
	})
	f.flash.EXPECT().Abort().Return(nil)

	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: 4096},
		Reporter: &recordingReporter{},
	})

	require.ErrorIs(t, err, port.ErrShortWrite)
	assert.Equal(t, "flash short write", err.Error())
	assert.Equal(t, entity.UpdateErrorDownloadFailed, out.Error)
	assert.Zero(t, out.BytesWritten)
}

func TestApplyUpdateUseCase_FlashWriteErrorKeepsCause(t *testing.T) {
	f := newApplyFixture(t)
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(1<<20), nil)
	f.reclaimer.EXPECT().Reclaim(gomock.Any())
	f.streamer.EXPECT().Open(gomock.Any(), firmwareURL).
		Return(&port.FirmwareStream{Body: &trackedBody{Reader: bytes.NewReader(payload(4096))}, ContentLength: 4096}, nil)
	f.flash.EXPECT().Begin(int64(4096)).Return(nil)
	f.expectScratch(1024)
	f.flash.EXPECT().Write(gomock.Any()).Return(0, errors.New("sector erase failed"))
	f.flash.EXPECT().Abort().Return(nil)

	_, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: 4096},
		Reporter: &recordingReporter{},
	})

	require.ErrorIs(t, err, port.ErrShortWrite)
	assert.Equal(t, "flash short write: sector erase failed", err.Error())
}

func TestApplyUpdateUseCase_CommitFails(t *testing.T) {
	f := newApplyFixture(t)
	data := payload(512)
	f.storage.EXPECT().FreeInstallableSpace().Return(uint64(1<<20), nil)
	f.reclaimer.EXPECT().Reclaim(gomock.Any())
	f.streamer.EXPECT().Open(gomock.Any(), firmwareURL).
		Return(&port.FirmwareStream{Body: &trackedBody{Reader: bytes.NewReader(data)}, ContentLength: 512}, nil)
	f.flash.EXPECT().Begin(int64(512)).Return(nil)
	f.expectScratch(1024)
	f.flash.EXPECT().Write(gomock.Any()).Return(512, nil)
	f.watchdog.EXPECT().Kick()
	f.flash.EXPECT().Commit().Return(errors.New("image verification failed"))
	f.flash.EXPECT().Abort().Return(nil)

	rep := &recordingReporter{}
	out, err := f.uc.Execute(context.Background(), ApplyUpdateInput{
		Release:  entity.ReleaseInfo{Version: "2.0.0", DownloadURL: firmwareURL, FileSize: 512},
		Reporter: rep,
	})

	require.ErrorIs(t, err, port.ErrFlashCommit)
	assert.Equal(t, entity.UpdateErrorFlashFailed, out.Error)
	assert.False(t, out.Success)
	assert.Equal(t, []entity.UpdateStatus{
		entity.UpdateStatusDownloading,
		entity.UpdateStatusFlashing,
		entity.UpdateStatusError,
	}, rep.statuses)
}
