package version

import (
	"fmt"
	"runtime"
)

// Build-time variables (set via ldflags)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns a one-line version banner
func String() string {
	return fmt.Sprintf("weather-mcp %s (commit %s, built %s, %s)", Version, GitCommit, BuildTime, runtime.Version())
}

// Info returns version information
func Info() map[string]interface{} {
	return map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"go_version": runtime.Version(),
	}
}
