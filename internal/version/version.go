package version

import "fmt"

// Set through -ldflags "-X github.com/your-org/exec-duration/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String reports build metadata and whether structured report formats were compiled in.
func String(serialization bool) string {
	return fmt.Sprintf("execdur version=%s commit=%s build_date=%s serialization=%t", Version, Commit, BuildDate, serialization)
}
