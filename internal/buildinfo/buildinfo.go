// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/esi/esi-bot/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/esi/esi-bot/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/esi/esi-bot/internal/buildinfo.BuildDate=...
var BuildDate = ""

// DisplayVersion returns Version, or "dev" for unversioned builds.
func DisplayVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// UserAgent is sent with every outbound API request.
func UserAgent() string {
	return "esi-bot/" + DisplayVersion()
}
