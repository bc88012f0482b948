// Package entity defines domain entities for flashota.
package entity

// MaxChangelogLength is the number of characters kept from a release body.
const MaxChangelogLength = 500

// ReleaseInfo holds information about the latest published firmware release.
type ReleaseInfo struct {
	// Version is the release tag with a single leading "v" removed.
	Version string
	// DownloadURL is the direct download URL of the selected firmware asset.
	DownloadURL string
	// Changelog contains the release notes, truncated to MaxChangelogLength.
	Changelog string
	// FileSize is the asset size reported by the release source (0 if unreported).
	FileSize uint64
	// AssetName is the name of the selected firmware asset.
	AssetName string
}

// IsValid reports whether the release carries both a version and a download URL.
func (r ReleaseInfo) IsValid() bool {
	return r.Version != "" && r.DownloadURL != ""
}

// UpdateStatus represents the current state of the update engine.
type UpdateStatus int

const (
	// UpdateStatusIdle means no session is active.
	UpdateStatusIdle UpdateStatus = iota
	// UpdateStatusChecking means the release source is being queried.
	UpdateStatusChecking
	// UpdateStatusAvailable means a newer firmware is available.
	UpdateStatusAvailable
	// UpdateStatusNoUpdate means the running firmware is the latest.
	UpdateStatusNoUpdate
	// UpdateStatusDownloading means the firmware is being streamed into flash.
	UpdateStatusDownloading
	// UpdateStatusFlashing means the flash transaction is being committed.
	UpdateStatusFlashing
	// UpdateStatusSuccess means the new firmware is committed and a restart is required.
	UpdateStatusSuccess
	// UpdateStatusError means the last session failed, see UpdateError.
	UpdateStatusError
)

// String returns a human-readable string for the update status.
func (s UpdateStatus) String() string {
	switch s {
	case UpdateStatusIdle:
		return "idle"
	case UpdateStatusChecking:
		return "checking"
	case UpdateStatusAvailable:
		return "available"
	case UpdateStatusNoUpdate:
		return "no-update"
	case UpdateStatusDownloading:
		return "downloading"
	case UpdateStatusFlashing:
		return "flashing"
	case UpdateStatusSuccess:
		return "success"
	case UpdateStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// InProgress reports whether progress values are meaningful in this status.
func (s UpdateStatus) InProgress() bool {
	return s == UpdateStatusDownloading || s == UpdateStatusFlashing
}

// UpdateError classifies why the last session failed.
type UpdateError int

const (
	// UpdateErrorNone means no error has been recorded.
	UpdateErrorNone UpdateError = iota
	// UpdateErrorNetwork means connectivity was unavailable.
	UpdateErrorNetwork
	// UpdateErrorAPIParse means no release document could be fetched.
	UpdateErrorAPIParse
	// UpdateErrorNoRelease means the release document had no usable version or firmware asset.
	UpdateErrorNoRelease
	// UpdateErrorDownloadFailed means the firmware stream failed before commit.
	UpdateErrorDownloadFailed
	// UpdateErrorFlashFailed means the image was received but could not be committed.
	UpdateErrorFlashFailed
	// UpdateErrorInvalidVersion is reserved for version strings that cannot be compared.
	UpdateErrorInvalidVersion
	// UpdateErrorInsufficientSpace means the flash target cannot hold the image.
	UpdateErrorInsufficientSpace
)

// String returns a short identifier for the error kind.
func (e UpdateError) String() string {
	switch e {
	case UpdateErrorNone:
		return "none"
	case UpdateErrorNetwork:
		return "network"
	case UpdateErrorAPIParse:
		return "api-parse"
	case UpdateErrorNoRelease:
		return "no-release"
	case UpdateErrorDownloadFailed:
		return "download-failed"
	case UpdateErrorFlashFailed:
		return "flash-failed"
	case UpdateErrorInvalidVersion:
		return "invalid-version"
	case UpdateErrorInsufficientSpace:
		return "insufficient-space"
	default:
		return "unknown"
	}
}

// Message returns the text shown to the user for the error kind.
func (e UpdateError) Message() string {
	switch e {
	case UpdateErrorNetwork:
		return "Network error"
	case UpdateErrorAPIParse:
		return "Failed to parse release info"
	case UpdateErrorNoRelease:
		return "No firmware found in release"
	case UpdateErrorDownloadFailed:
		return "Download failed"
	case UpdateErrorFlashFailed:
		return "Installation failed"
	case UpdateErrorInvalidVersion:
		return "Invalid version format"
	case UpdateErrorInsufficientSpace:
		return "Insufficient storage space"
	default:
		return "Unknown error"
	}
}

// Progress describes how far the current download has come.
// Only meaningful while the status is Downloading or Flashing.
type Progress struct {
	Percent      int
	BytesWritten uint64
	TotalBytes   uint64
}

// NewProgress computes the percentage for written out of total.
func NewProgress(written, total uint64) Progress {
	p := Progress{BytesWritten: written, TotalBytes: total}
	if total > 0 {
		p.Percent = int(written * 100 / total)
	}
	return p
}

// ParseUpdateStatus is the inverse of UpdateStatus.String.
func ParseUpdateStatus(s string) (UpdateStatus, bool) {
	for st := UpdateStatusIdle; st <= UpdateStatusError; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return UpdateStatusIdle, false
}

// ParseUpdateError is the inverse of UpdateError.String.
func ParseUpdateError(s string) (UpdateError, bool) {
	for e := UpdateErrorNone; e <= UpdateErrorInsufficientSpace; e++ {
		if e.String() == s {
			return e, true
		}
	}
	return UpdateErrorNone, false
}
