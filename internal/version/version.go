// Package version carries build information stamped in with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build information for -version.
func String() string {
	return fmt.Sprintf("cubeface %s (commit %s, built %s, %s %s/%s)",
		Version, GitSHA, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
