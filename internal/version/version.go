// Package version carries build metadata, set with -ldflags
// "-X github.com/banshee-data/prim/internal/version.Version=...".
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

// String formats the build metadata for `prim version`.
func String() string {
	return fmt.Sprintf("prim %s (git %s, built %s)", Version, GitSHA, BuildTime)
}
