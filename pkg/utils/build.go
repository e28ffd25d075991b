// Build information, injected through -ldflags "-X github.com/nobletooth/circle/pkg/utils.Version=..." at release.
// CAUTION: The variable names are part of the release tooling; don't rename them.

package utils

import (
	"log/slog"
	"strconv"
	"time"
)

var (
	TestMode   string // Should be true when running tests.
	IsTestMode bool
	Version    string
	Commit     string
	BuildTime  string
	StartTime  time.Time
)

func init() {
	StartTime = time.Now()

	// Development builds still carry a valid semantic version.
	if Version == "" {
		Version = "v0.0.0-dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
	if BuildTime == "" {
		BuildTime = "unknown"
	}
	if len(TestMode) > 0 {
		if isTestMode, err := strconv.ParseBool(TestMode); err == nil {
			IsTestMode = isTestMode
		} else {
			slog.Warn("Failed to parse TestMode build flag, defaulting to false", "error", err)
		}
	}
}

// BuildAttrs returns the build information as slog key-value pairs.
func BuildAttrs() []any {
	return []any{"version", Version, "commit", Commit, "buildTime", BuildTime}
}

// Uptime returns how long the process has been running.
func Uptime() time.Duration {
	return time.Since(StartTime)
}
