// Package version records build metadata stamped in via -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a single-line description of the build.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
