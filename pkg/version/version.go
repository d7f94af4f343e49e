// Package version reports the build version of sagequery.
package version

import "runtime/debug"

// Set at build time with -ldflags "-X github.com/rshade/sagequery/pkg/version.version=...".
//
//nolint:gochecknoglobals // link-time variables
var (
	version   = "0.1.0-dev"
	gitCommit = ""
	buildDate = ""
)

// GetVersion returns the semantic version without a leading "v".
func GetVersion() string {
	return version
}

// GetGitCommit returns the commit the binary was built from, falling back to the
// VCS revision recorded by the Go toolchain.
func GetGitCommit() string {
	if gitCommit != "" {
		return gitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

// GetBuildDate returns the build timestamp, or "unknown".
func GetBuildDate() string {
	if buildDate == "" {
		return "unknown"
	}
	return buildDate
}
