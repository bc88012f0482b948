// Package usecase contains application use cases that orchestrate domain logic.
package usecase

import (
	"context"
	"errors"

	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/bnema/flashota/internal/domain/semver"
	"github.com/bnema/flashota/internal/logging"
)

var (
	// ErrNetworkUnavailable is returned when the check is attempted without connectivity.
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrNoReleaseDocument is returned when no strategy produced a release document.
	ErrNoReleaseDocument = errors.New("no release document fetched")
	// ErrNoFirmwareRelease is returned when the document has no version or firmware asset.
	ErrNoFirmwareRelease = errors.New("release has no usable firmware")
)

// CheckUpdateInput holds the input for the check update use case.
type CheckUpdateInput struct {
	// Reporter receives every state transition of the check.
	Reporter port.StatusReporter
}

// CheckUpdateOutput holds the result of the update check.
type CheckUpdateOutput struct {
	// UpdateAvailable is true if the release is newer than the running firmware.
	UpdateAvailable bool
	// CurrentVersion is the version of the running firmware.
	CurrentVersion string
	// Release is the parsed release, possibly invalid.
	Release entity.ReleaseInfo
	// Error classifies the failure, UpdateErrorNone on success.
	Error entity.UpdateError
}

// CheckUpdateUseCase queries the release source and decides whether an update is available.
type CheckUpdateUseCase struct {
	connectivity port.Connectivity
	fetcher      port.ReleaseFetcher
	parser       port.ReleaseParser
	versions     port.VersionSource
	ownerRepo    string
}

// NewCheckUpdateUseCase creates a new check update use case for ownerRepo ("owner/repo").
func NewCheckUpdateUseCase(
	connectivity port.Connectivity,
	fetcher port.ReleaseFetcher,
	parser port.ReleaseParser,
	versions port.VersionSource,
	ownerRepo string,
) *CheckUpdateUseCase {
	return &CheckUpdateUseCase{
		connectivity: connectivity,
		fetcher:      fetcher,
		parser:       parser,
		versions:     versions,
		ownerRepo:    ownerRepo,
	}
}

// Execute runs one check. Every transition is reported exactly once through input.Reporter.
func (uc *CheckUpdateUseCase) Execute(ctx context.Context, input CheckUpdateInput) (*CheckUpdateOutput, error) {
	log := logging.FromContext(ctx)
	report := input.Reporter

	current := uc.versions.Current()
	out := &CheckUpdateOutput{CurrentVersion: current}

	if !uc.connectivity.IsUp(ctx) {
		log.Warn().Msg("update check skipped: network is down")
		out.Error = entity.UpdateErrorNetwork
		report.SetStatus(entity.UpdateStatusError, out.Error)
		return out, ErrNetworkUnavailable
	}

	report.SetStatus(entity.UpdateStatusChecking, entity.UpdateErrorNone)

	raw := uc.fetcher.Fetch(ctx, uc.ownerRepo)
	if len(raw) == 0 {
		log.Error().Str("repo", uc.ownerRepo).Msg("failed to fetch release info")
		out.Error = entity.UpdateErrorAPIParse
		report.SetStatus(entity.UpdateStatusError, out.Error)
		return out, ErrNoReleaseDocument
	}

	out.Release = uc.parser.Parse(ctx, raw)
	if !out.Release.IsValid() {
		log.Error().
			Str("version", out.Release.Version).
			Bool("has_asset", out.Release.DownloadURL != "").
			Msg("release has no usable firmware")
		out.Error = entity.UpdateErrorNoRelease
		report.SetStatus(entity.UpdateStatusError, out.Error)
		return out, ErrNoFirmwareRelease
	}

	if _, ok := semver.Parse(out.Release.Version); !ok {
		log.Warn().Str("version", out.Release.Version).Msg("remote version is not major.minor.patch, malformed parts compare as 0")
	}
	if _, ok := semver.Parse(current); !ok {
		log.Warn().Str("version", current).Msg("current version is not major.minor.patch, malformed parts compare as 0")
	}

	out.UpdateAvailable = semver.IsNewer(out.Release.Version, current)

	log.Info().
		Str("current", current).
		Str("latest", out.Release.Version).
		Bool("update_available", out.UpdateAvailable).
		Msg("update check completed")

	if out.UpdateAvailable {
		report.SetStatus(entity.UpdateStatusAvailable, entity.UpdateErrorNone)
	} else {
		report.SetStatus(entity.UpdateStatusNoUpdate, entity.UpdateErrorNone)
	}
	return out, nil
}
