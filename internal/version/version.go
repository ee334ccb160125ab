// Package version carries build metadata injected at link time.
package version

var (
	// Version is the release version, set via -ldflags
	Version = "dev"

	// Commit is the git commit hash, set via -ldflags
	Commit = "none"

	// BuildTime is the build timestamp, set via -ldflags
	BuildTime = "unknown"
)
