// Package version records the build metadata stamped into the mapmcp binary.
package version

import (
	"fmt"
	"runtime"
)

// Overridden at release time via
// -ldflags "-X github.com/mapmcp/mapmcp/pkg/version.BuildVersion=...".
var (
	// BuildVersion is the semantic version of this build.
	BuildVersion = "0.1.0"

	// BuildCommit is the VCS revision the binary was built from.
	BuildCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// String renders the version line shown by the -version flag.
func String() string {
	return fmt.Sprintf("mapmcp %s (commit %s, built %s, %s)",
		BuildVersion, BuildCommit, BuildDate, runtime.Version())
}

// UserAgent renders the identification string sent with every request
// to the map services. Nominatim's usage policy requires a User-Agent
// naming the application, so it tracks the build version.
func UserAgent() string {
	return "mapmcp/" + BuildVersion
}
