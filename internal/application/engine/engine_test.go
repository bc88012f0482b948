package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/application/usecase"
	"github.com/bnema/flashota/internal/domain/build"
	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/bnema/flashota/internal/logging"
)

type harness struct {
	engine   *Engine
	fetcher  *countingFetcher
	flash    *memFlash
	journal  *memJournal
	statuses []entity.UpdateStatus
	errs     []entity.UpdateError
	progress []entity.Progress
}

type harnessConfig struct {
	connected bool
	release   entity.ReleaseInfo
	free      uint64
	current   string
	client    *http.Client
}

func newHarness(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()

	if cfg.current == "" {
		cfg.current = "1.0.0"
	}
	if cfg.client == nil {
		cfg.client = http.DefaultClient
	}

	h := &harness{
		fetcher: &countingFetcher{raw: []byte(`{"tag_name":"stub"}`)},
		flash:   &memFlash{},
		journal: &memJournal{},
	}
	versions := build.Info{Version: cfg.current}

	checker := usecase.NewCheckUpdateUseCase(
		stubConnectivity{up: cfg.connected},
		h.fetcher,
		stubParser{info: cfg.release},
		versions,
		"acme/signer",
	)
	installer := usecase.NewApplyUpdateUseCase(
		stubStorage{free: cfg.free},
		httpStreamer{client: cfg.client},
		h.flash,
		noopReclaimer{},
		fixedScratch{size: 1024},
		noopWatchdog{},
	)

	seq := 0
	h.engine = New(Deps{
		Checker:   checker,
		Installer: installer,
		Versions:  versions,
		Journal:   h.journal,
	}, Options{
		Now: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string {
			seq++
			return fmt.Sprintf("session-%04d", seq)
		},
	})
	h.engine.OnStatus(func(s entity.UpdateStatus, e entity.UpdateError) {
		h.statuses = append(h.statuses, s)
		h.errs = append(h.errs, e)
	})
	h.engine.OnProgress(func(percent int, written, total uint64) {
		h.progress = append(h.progress, entity.Progress{Percent: percent, BytesWritten: written, TotalBytes: total})
	})
	return h
}

func firmwareServer(t *testing.T, data []byte, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEngine_SessionLogsCarrySessionFields(t *testing.T) {
	h := newHarness(t, harnessConfig{connected: false})

	var buf bytes.Buffer
	ctx := logging.WithContext(context.Background(), zerolog.New(&buf))
	h.engine.CheckForUpdates(ctx)

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), `"session":"ion-0001"`)
	assert.Contains(t, buf.String(), `"kind":"check"`)
}

func TestEngine_CheckNetworkDown(t *testing.T) {
	h := newHarness(t, harnessConfig{connected: false})

	assert.False(t, h.engine.CheckForUpdates(context.Background()))
	assert.Equal(t, entity.UpdateStatusError, h.engine.Status())
	assert.Equal(t, entity.UpdateErrorNetwork, h.engine.LastError())
	assert.Zero(t, h.fetcher.calls.Load())
	assert.Equal(t, []entity.UpdateStatus{entity.UpdateStatusError}, h.statuses)
	assert.Equal(t, []entity.UpdateError{entity.UpdateErrorNetwork}, h.errs)
	assert.Equal(t, "Network error", h.engine.StatusMessage())
	require.ErrorIs(t, h.engine.LastErrorDetail(), usecase.ErrNetworkUnavailable)

	require.Len(t, h.journal.sessions, 1)
	assert.Equal(t, entity.SessionKindCheck, h.journal.sessions[0].Kind)
	assert.Equal(t, entity.UpdateErrorNetwork, h.journal.sessions[0].Error)
}

func TestEngine_CheckAndInstall(t *testing.T) {
	data := bytes.Repeat([]byte{0xE9, 0x01, 0x02, 0x03}, 2500)
	srv := firmwareServer(t, data, nil)
	h := newHarness(t, harnessConfig{
		connected: true,
		free:      1 << 20,
		client:    srv.Client(),
		release: entity.ReleaseInfo{
			Version:     "1.2.0",
			DownloadURL: srv.URL + "/fw.bin",
			FileSize:    uint64(len(data)),
		},
	})
	ctx := context.Background()

	require.True(t, h.engine.CheckForUpdates(ctx))
	assert.True(t, h.engine.IsUpdateAvailable())
	assert.Equal(t, "Update available: 1.2.0", h.engine.StatusMessage())
	rel, ok := h.engine.LatestRelease()
	require.True(t, ok)
	assert.Equal(t, "1.2.0", rel.Version)

	require.True(t, h.engine.StartUpdate(ctx))
	assert.Equal(t, entity.UpdateStatusSuccess, h.engine.Status())
	assert.Equal(t, entity.UpdateErrorNone, h.engine.LastError())
	assert.Equal(t, "Update successful! Restart required.", h.engine.StatusMessage())
	assert.Equal(t, data, h.flash.committed)
	assert.Zero(t, h.engine.Progress(), "progress is only reported while downloading or flashing")

	assert.Equal(t, []entity.UpdateStatus{
		entity.UpdateStatusChecking,
		entity.UpdateStatusAvailable,
		entity.UpdateStatusDownloading,
		entity.UpdateStatusFlashing,
		entity.UpdateStatusSuccess,
	}, h.statuses)
	for _, e := range h.errs {
		assert.Equal(t, entity.UpdateErrorNone, e)
	}

	total := uint64(len(data))
	complete := 0
	for i, p := range h.progress {
		if i > 0 {
			assert.GreaterOrEqual(t, p.BytesWritten, h.progress[i-1].BytesWritten)
		}
		if p.BytesWritten == total {
			complete++
		}
	}
	assert.Equal(t, 1, complete, "bytes written reaches the total exactly once")
	assert.Equal(t, 100, h.progress[len(h.progress)-1].Percent)

	require.Len(t, h.journal.sessions, 2)
	install := h.journal.sessions[1]
	assert.Equal(t, entity.SessionKindInstall, install.Kind)
	assert.Equal(t, entity.UpdateStatusSuccess, install.Status)
	assert.Equal(t, "1.0.0", install.CurrentVersion)
	assert.Equal(t, "1.2.0", install.TargetVersion)
	assert.Equal(t, total, install.BytesWritten)
	assert.Equal(t, entity.SessionID("session-0002"), install.ID)
}

func TestEngine_NoUpdate(t *testing.T) {
	h := newHarness(t, harnessConfig{
		connected: true,
		current:   "1.2.3",
		release:   entity.ReleaseInfo{Version: "1.2.3", DownloadURL: "http://unused/fw.bin"},
	})

	assert.False(t, h.engine.CheckForUpdates(context.Background()))
	assert.Equal(t, entity.UpdateStatusNoUpdate, h.engine.Status())
	assert.Equal(t, "No updates available", h.engine.StatusMessage())
	assert.False(t, h.engine.StartUpdate(context.Background()))
	assert.Equal(t, entity.UpdateStatusNoUpdate, h.engine.Status())
}

func TestEngine_StartUpdateRequiresAvailable(t *testing.T) {
	h := newHarness(t, harnessConfig{connected: true})

	assert.False(t, h.engine.StartUpdate(context.Background()))
	assert.Equal(t, entity.UpdateStatusIdle, h.engine.Status())
	assert.Empty(t, h.statuses)
	assert.Empty(t, h.journal.sessions)
	assert.Zero(t, h.flash.begins)
}

func TestEngine_InsufficientSpace(t *testing.T) {
	var hits atomic.Int32
	srv := firmwareServer(t, make([]byte, 4096), &hits)
	h := newHarness(t, harnessConfig{
		connected: true,
		free:      1024,
		client:    srv.Client(),
		release:   entity.ReleaseInfo{Version: "2.0.0", DownloadURL: srv.URL, FileSize: 4096},
	})
	ctx := context.Background()

	require.True(t, h.engine.CheckForUpdates(ctx))
	assert.False(t, h.engine.StartUpdate(ctx))

	assert.Equal(t, entity.UpdateStatusError, h.engine.Status())
	assert.Equal(t, entity.UpdateErrorInsufficientSpace, h.engine.LastError())
	assert.Equal(t, "Insufficient storage space", h.engine.StatusMessage())
	assert.Zero(t, hits.Load())
	assert.Zero(t, h.flash.begins)
	assert.Empty(t, h.progress)
}

func TestEngine_ErrorIsStickyUntilNextCheck(t *testing.T) {
	h := newHarness(t, harnessConfig{connected: true})
	h.fetcher.raw = nil

	assert.False(t, h.engine.CheckForUpdates(context.Background()))
	assert.Equal(t, entity.UpdateErrorAPIParse, h.engine.LastError())

	h.engine.CancelUpdate()
	assert.Equal(t, entity.UpdateErrorAPIParse, h.engine.LastError())

	var seenAtChecking entity.UpdateError
	h.engine.OnStatus(func(s entity.UpdateStatus, _ entity.UpdateError) {
		if s == entity.UpdateStatusChecking {
			seenAtChecking = h.engine.LastError()
		}
	})
	h.fetcher.raw = []byte(`{}`)
	assert.False(t, h.engine.CheckForUpdates(context.Background()))
	assert.Equal(t, entity.UpdateErrorNone, seenAtChecking)
	assert.Equal(t, entity.UpdateErrorNoRelease, h.engine.LastError())
}

func TestEngine_CancelWhileIdleIsNoop(t *testing.T) {
	h := newHarness(t, harnessConfig{connected: true})

	h.engine.CancelUpdate()

	assert.Equal(t, entity.UpdateStatusIdle, h.engine.Status())
	assert.Empty(t, h.statuses)
}

func TestEngine_CancelDuringDownload(t *testing.T) {
	closed := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(1<<20))
		_, _ = w.Write(make([]byte, 4096))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(closed)
	}))
	t.Cleanup(srv.Close)

	h := newHarness(t, harnessConfig{
		connected: true,
		free:      4 << 20,
		client:    srv.Client(),
		release:   entity.ReleaseInfo{Version: "2.0.0", DownloadURL: srv.URL, FileSize: 1 << 20},
	})
	ctx := context.Background()
	require.True(t, h.engine.CheckForUpdates(ctx))

	var once sync.Once
	h.engine.OnProgress(func(_ int, written, _ uint64) {
		if written > 0 {
			once.Do(h.engine.CancelUpdate)
		}
	})

	assert.False(t, h.engine.StartUpdate(ctx))
	assert.Equal(t, entity.UpdateStatusIdle, h.engine.Status())
	assert.Equal(t, entity.UpdateErrorNone, h.engine.LastError())
	assert.Zero(t, h.engine.Progress())
	assert.NotContains(t, h.statuses, entity.UpdateStatusError)
	assert.Equal(t, entity.UpdateStatusIdle, h.statuses[len(h.statuses)-1])

	assert.Equal(t, 1, h.flash.aborts)
	assert.Nil(t, h.flash.committed)

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("firmware connection was not closed after cancel")
	}

	require.Len(t, h.journal.sessions, 2)
	assert.Equal(t, entity.UpdateStatusIdle, h.journal.sessions[1].Status)
}

func TestEngine_SingleSession(t *testing.T) {
	h := newHarness(t, harnessConfig{
		connected: true,
		release:   entity.ReleaseInfo{Version: "9.9.9", DownloadURL: "http://unused/fw.bin"},
	})
	ctx := context.Background()

	var nestedCheck, nestedStart *bool
	h.engine.OnStatus(func(s entity.UpdateStatus, _ entity.UpdateError) {
		if s != entity.UpdateStatusChecking {
			return
		}
		c := h.engine.CheckForUpdates(ctx)
		st := h.engine.StartUpdate(ctx)
		nestedCheck, nestedStart = &c, &st
	})

	assert.True(t, h.engine.CheckForUpdates(ctx))
	require.NotNil(t, nestedCheck)
	assert.False(t, *nestedCheck)
	assert.False(t, *nestedStart)
	assert.Equal(t, int32(1), h.fetcher.calls.Load())
	assert.Equal(t, entity.UpdateStatusAvailable, h.engine.Status())
}

func TestEngine_ResetAndClose(t *testing.T) {
	h := newHarness(t, harnessConfig{
		connected: true,
		release:   entity.ReleaseInfo{Version: "9.9.9", DownloadURL: "http://unused/fw.bin"},
	})
	ctx := context.Background()
	require.True(t, h.engine.CheckForUpdates(ctx))

	h.engine.Reset()
	assert.Equal(t, entity.UpdateStatusIdle, h.engine.Status())
	assert.Equal(t, entity.UpdateErrorNone, h.engine.LastError())
	assert.Equal(t, "Ready", h.engine.StatusMessage())
	_, ok := h.engine.LatestRelease()
	assert.False(t, ok)
	assert.False(t, h.engine.StartUpdate(ctx))

	h.engine.Close()
	before := len(h.statuses)
	require.True(t, h.engine.CheckForUpdates(ctx))
	assert.Len(t, h.statuses, before, "callbacks are dropped by Close")
}

type stubConnectivity struct{ up bool }

func (s stubConnectivity) IsUp(context.Context) bool { return s.up }
func (stubConnectivity) Reset(context.Context)       {}

type countingFetcher struct {
	raw   []byte
	calls atomic.Int32
}

func (f *countingFetcher) Fetch(context.Context, string) []byte {
	f.calls.Add(1)
	return f.raw
}

type stubParser struct{ info entity.ReleaseInfo }

func (p stubParser) Parse(context.Context, []byte) entity.ReleaseInfo { return p.info }

type stubStorage struct{ free uint64 }

func (s stubStorage) FreeInstallableSpace() (uint64, error) { return s.free, nil }

type httpStreamer struct{ client *http.Client }

func (s httpStreamer) Open(ctx context.Context, url string) (*port.FirmwareStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, port.ErrUnexpectedStatus
	}
	return &port.FirmwareStream{Body: resp.Body, ContentLength: resp.ContentLength}, nil
}

type memFlash struct {
	buf       bytes.Buffer
	open      bool
	begins    int
	aborts    int
	committed []byte
}

func (f *memFlash) Begin(int64) error {
	if f.open {
		return errors.New("transaction already open")
	}
	f.begins++
	f.open = true
	f.buf.Reset()
	return nil
}

func (f *memFlash) Write(p []byte) (int, error) { return f.buf.Write(p) }

func (f *memFlash) Commit() error {
	f.open = false
	f.committed = append([]byte(nil), f.buf.Bytes()...)
	return nil
}

func (f *memFlash) Abort() error {
	if f.open {
		f.aborts++
	}
	f.open = false
	return nil
}

type noopReclaimer struct{}

func (noopReclaimer) Reclaim(context.Context) {}

type fixedScratch struct{ size int }

func (s fixedScratch) Scratch() ([]byte, func()) { return make([]byte, s.size), func() {} }

type noopWatchdog struct{}

func (noopWatchdog) Kick() {}

type memJournal struct {
	sessions []*entity.UpdateSession
}

func (j *memJournal) Record(_ context.Context, s *entity.UpdateSession) error {
	cp := *s
	j.sessions = append(j.sessions, &cp)
	return nil
}

func (j *memJournal) Recent(_ context.Context, limit int) ([]*entity.UpdateSession, error) {
	if limit > len(j.sessions) {
		limit = len(j.sessions)
	}
	return j.sessions[len(j.sessions)-limit:], nil
}
