package styles

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/flashota/internal/domain/build"
	"github.com/bnema/flashota/internal/domain/entity"
)

func TestUpdateRenderer(t *testing.T) {
	r := NewUpdateRenderer(NewTheme())

	release := entity.ReleaseInfo{
		Version:   "1.3.0",
		AssetName: "signer-esp32.bin",
		FileSize:  2 * 1024 * 1024,
		Changelog: "Faster boot",
	}
	out := r.RenderAvailable("1.2.0", release)
	assert.Contains(t, out, "1.2.0")
	assert.Contains(t, out, "1.3.0")
	assert.Contains(t, out, "signer-esp32.bin")
	assert.Contains(t, out, "2.0 MiB")
	assert.Contains(t, out, "Faster boot")

	assert.Contains(t, r.RenderAvailable("1.2.0", entity.ReleaseInfo{Version: "1.3.0"}), "unknown size")

	assert.Contains(t, r.RenderUpToDate("1.2.0"), "No updates available")
	assert.Contains(t, r.RenderDownloading("[bar]", "1.3.0", entity.NewProgress(1024, 2048)), "1.0 KiB / 2.0 KiB")
	assert.Contains(t, r.RenderSuccess("1.3.0", 2048), "Restart required")
	assert.Contains(t, r.RenderCancelled(), "cancelled")
	assert.Contains(t, r.RenderConfirm(), "[y/N]")
	assert.Contains(t, r.RenderCancelling("*"), "Cancelling")

	failure := r.RenderFailure(entity.UpdateErrorDownloadFailed, errors.New("connection reset"))
	assert.Contains(t, failure, "Download failed: connection reset")
	assert.Contains(t, r.RenderFailure(entity.UpdateErrorNetwork, nil), "Network error")
}

func TestHistoryRenderer(t *testing.T) {
	r := NewHistoryRenderer(NewTheme())
	now := time.Date(2025, 12, 22, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	require.Contains(t, r.RenderEmpty(), "No update sessions")
	require.Contains(t, r.RenderList(nil, 10), "No update sessions")

	install := &entity.UpdateSession{
		ID:             "5f0c7a52-8d1e-4c3b-9a55-0b6d2e41c9f7",
		Kind:           entity.SessionKindInstall,
		CurrentVersion: "1.2.0",
		TargetVersion:  "1.3.0",
		BytesWritten:   1024,
		TotalBytes:     4096,
		StartedAt:      now.Add(-2 * time.Hour),
	}
	install.End(now.Add(-2*time.Hour+90*time.Second), entity.UpdateStatusError, entity.UpdateErrorDownloadFailed)

	check := &entity.UpdateSession{
		ID:             "chk00001",
		Kind:           entity.SessionKindCheck,
		CurrentVersion: "1.2.0",
		StartedAt:      now.Add(-time.Minute),
	}

	out := r.RenderList([]*entity.UpdateSession{install, check}, 20)
	assert.Contains(t, out, "Update history")
	assert.Contains(t, out, "showing up to 20")
	assert.Contains(t, out, "2e41c9f7")
	assert.Contains(t, out, "install")
	assert.Contains(t, out, "Download failed")
	assert.Contains(t, out, "1.0 KiB / 4.0 KiB")
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "took 1m30s")
	assert.Contains(t, out, "chk00001")

	assert.Contains(t, r.RenderError(errors.New("db locked")), "db locked")
}

func TestAboutRenderer(t *testing.T) {
	out := NewAboutRenderer(NewTheme()).Render(build.Info{Version: "1.2.0", Commit: "abc123", BuildDate: "2025-12-22", GoVersion: "go1.25.3"})
	assert.Contains(t, out, "1.2.0")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, build.RepoURL())
}
