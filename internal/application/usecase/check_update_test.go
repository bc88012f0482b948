package usecase

import (
	"context"
	"testing"

	"github.com/bnema/flashota/internal/domain/build"
	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUpdateUseCase_NetworkDown(t *testing.T) {
	fetcher := &stubFetcher{raw: []byte(`{}`)}
	uc := NewCheckUpdateUseCase(stubConnectivity{up: false}, fetcher, stubParser{}, build.Info{Version: "1.0.0"}, "acme/fw")
	rep := &recordingReporter{}

	out, err := uc.Execute(context.Background(), CheckUpdateInput{Reporter: rep})

	require.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.Equal(t, entity.UpdateErrorNetwork, out.Error)
	assert.False(t, out.UpdateAvailable)
	assert.Equal(t, []entity.UpdateStatus{entity.UpdateStatusError}, rep.statuses)
	assert.Zero(t, fetcher.calls, "fetch must not run without connectivity")
}

func TestCheckUpdateUseCase_FetchFailed(t *testing.T) {
	uc := NewCheckUpdateUseCase(stubConnectivity{up: true}, &stubFetcher{}, stubParser{}, build.Info{Version: "1.0.0"}, "acme/fw")
	rep := &recordingReporter{}

	out, err := uc.Execute(context.Background(), CheckUpdateInput{Reporter: rep})

	require.ErrorIs(t, err, ErrNoReleaseDocument)
	assert.Equal(t, entity.UpdateErrorAPIParse, out.Error)
	assert.Equal(t, []entity.UpdateStatus{entity.UpdateStatusChecking, entity.UpdateStatusError}, rep.statuses)
	assert.Equal(t, []entity.UpdateError{entity.UpdateErrorNone, entity.UpdateErrorAPIParse}, rep.errors)
}

func TestCheckUpdateUseCase_NoUsableRelease(t *testing.T) {
	parser := stubParser{info: entity.ReleaseInfo{Version: "2.0.0"}}
	uc := NewCheckUpdateUseCase(stubConnectivity{up: true}, &stubFetcher{raw: []byte(`{}`)}, parser, build.Info{Version: "1.0.0"}, "acme/fw")
	rep := &recordingReporter{}

	out, err := uc.Execute(context.Background(), CheckUpdateInput{Reporter: rep})

	require.ErrorIs(t, err, ErrNoFirmwareRelease)
	assert.Equal(t, entity.UpdateErrorNoRelease, out.Error)
	assert.Equal(t, entity.UpdateStatusError, rep.last())
}

func TestCheckUpdateUseCase_Decision(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		remote    string
		want      bool
		wantFinal entity.UpdateStatus
	}{
		{"newer major", "1.9.9", "v2.0.0", true, entity.UpdateStatusAvailable},
		{"same version", "1.2.3", "v1.2.3", false, entity.UpdateStatusNoUpdate},
		{"numeric minor", "1.9.0", "1.10.0", true, entity.UpdateStatusAvailable},
		{"older remote", "2.0.0", "1.9.9", false, entity.UpdateStatusNoUpdate},
		{"malformed remote", "0.0.1", "latest", false, entity.UpdateStatusNoUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := stubParser{info: entity.ReleaseInfo{
				Version:     tt.remote,
				DownloadURL: "https://example.com/fw.bin",
				FileSize:    1024,
			}}
			fetcher := &stubFetcher{raw: []byte(`{"tag_name":"x"}`)}
			uc := NewCheckUpdateUseCase(stubConnectivity{up: true}, fetcher, parser, build.Info{Version: tt.current}, "acme/fw")
			rep := &recordingReporter{}

			out, err := uc.Execute(context.Background(), CheckUpdateInput{Reporter: rep})

			require.NoError(t, err)
			assert.Equal(t, tt.want, out.UpdateAvailable)
			assert.Equal(t, tt.current, out.CurrentVersion)
			assert.Equal(t, tt.remote, out.Release.Version)
			assert.Equal(t, entity.UpdateErrorNone, out.Error)
			assert.Equal(t, []entity.UpdateStatus{entity.UpdateStatusChecking, tt.wantFinal}, rep.statuses)
			assert.Equal(t, "acme/fw", fetcher.lastRepo)
		})
	}
}

type stubConnectivity struct {
	up bool
}

func (s stubConnectivity) IsUp(context.Context) bool { return s.up }
func (stubConnectivity) Reset(context.Context)       {}

type stubFetcher struct {
	raw      []byte
	calls    int
	lastRepo string
}

func (s *stubFetcher) Fetch(_ context.Context, ownerRepo string) []byte {
	s.calls++
	s.lastRepo = ownerRepo
	return s.raw
}

type stubParser struct {
	info entity.ReleaseInfo
}

func (s stubParser) Parse(context.Context, []byte) entity.ReleaseInfo {
	return s.info
}

type recordingReporter struct {
	statuses []entity.UpdateStatus
	errors   []entity.UpdateError
	progress []entity.Progress
}

func (r *recordingReporter) SetStatus(status entity.UpdateStatus, err entity.UpdateError) {
	r.statuses = append(r.statuses, status)
	r.errors = append(r.errors, err)
}

func (r *recordingReporter) SetProgress(p entity.Progress) {
	r.progress = append(r.progress, p)
}

func (r *recordingReporter) last() entity.UpdateStatus {
	if len(r.statuses) == 0 {
		return entity.UpdateStatusIdle
	}
	return r.statuses[len(r.statuses)-1]
}
