// Package build provides domain entities for build information.
package build

// Info holds build-time information injected via ldflags.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
}

// IsDev reports whether this is an unversioned development build.
func (i Info) IsDev() bool {
	return i.Version == "" || i.Version == "dev"
}

// Current returns the firmware version used for update comparisons.
func (i Info) Current() string {
	return i.Version
}

// Product is the identifier sent in the User-Agent header.
func Product() string {
	return "flashota"
}

// RepoURL returns the GitHub repository URL.
func RepoURL() string {
	return "https://github.com/bnema/flashota"
}
