// Package version holds build metadata, set with
// -ldflags "-X mlpaint/internal/version.GitCommit=...".
package version

import "fmt"

var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed at startup and in the About box.
func String() string {
	if GitCommit == "unknown" {
		return "v" + Version
	}
	return fmt.Sprintf("v%s (%s, built %s)", Version, GitCommit, BuildTime)
}
