package version

import "fmt"

// Version contains the application version information.
// Set via build-time ldflags in releases:
// go build -ldflags "-X git.home.luguber.info/inful/emailbuilder/internal/version.Version=v1.0.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("emailbuilder %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
