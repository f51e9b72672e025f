package version

import "fmt"

// Tagline is the application's tagline used in help text.
const Tagline = "I'm Canopy, and I grow a worktree per agent"

// Build information injected at build time via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = "unknown"
)

// Info returns formatted version information
func Info() string {
	return fmt.Sprintf("canopy %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}
