package logging

import (
	"log/slog"
	"strings"

	"github.com/anamnesportalen/anamnese-api/config"
)

// parseLogLevel maps a LOG_LEVEL string to a slog level, defaulting to info
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel returns the console handler level for the environment.
// Tests stay quiet unless run verbose; the LOG_LEVEL override is ignored
// there so a leftover env var cannot flood test output.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the rotating-file handler level. Files always get
// debug so incidents can be investigated after the fact.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}
