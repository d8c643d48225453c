// Package version reports build provenance for startup logs.
//
// The commit hash comes from an -ldflags override when set, otherwise from
// the VCS stamp embedded by the Go toolchain. Builds without either report
// "dev".
package version

import "runtime/debug"

// AppName identifies this service in version strings.
const AppName = "orchestrator"

// commitOverride is populated via -ldflags for container builds that
// compile outside a git checkout.
var commitOverride string

var (
	// Commit is the short hash of the source revision.
	Commit = "dev"
	// BuildDate is the VCS timestamp of that revision, when known.
	BuildDate = ""
)

func init() {
	if commitOverride != "" {
		Commit = short(commitOverride)
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if s.Value != "" {
				Commit = short(s.Value)
			}
		case "vcs.time":
			BuildDate = s.Value
		}
	}
}

func short(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

// Full returns "orchestrator/<commit>" for logs and diagnostics.
func Full() string {
	return AppName + "/" + Commit
}
