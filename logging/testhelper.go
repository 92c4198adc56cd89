package logging

import (
	"testing"

	"github.com/anamnesportalen/anamnese-api/config"
)

// ResetForTest reinitializes the global logging service into logDir and
// registers cleanup, so tests do not leak file handles or log into each
// other's directories.
func ResetForTest(t *testing.T, logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	t.Helper()

	if DefaultLoggingService != nil {
		_ = DefaultLoggingService.Close()
	}

	consoleLevel := GetConsoleLogLevel(env, logLevel, testing.Verbose())
	logger, rotating := SetupLoggerWithOptions(logDir, consoleLevel, GetFileLogLevel(), retentionWeeks, maxFileSize)

	DefaultLoggingService = &LoggingService{
		Logger:   logger,
		rotating: rotating,
	}

	t.Cleanup(func() {
		if DefaultLoggingService != nil {
			_ = DefaultLoggingService.Close()
			DefaultLoggingService = nil
		}
	})
}
