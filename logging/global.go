package logging

import (
	"log/slog"
	"os"

	"github.com/anamnesportalen/anamnese-api/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

// Close releases the rotating log file, if any
func (s *LoggingService) Close() error {
	if s.rotating != nil {
		return s.rotating.Close()
	}
	return nil
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance
func InitLogger(logDir string) {
	DefaultLoggingService = &LoggingService{
		Logger: SetupLogger(logDir),
	}
	slog.SetDefault(DefaultLoggingService.Logger)
}

// InitLoggerWithRetentionAndSize initializes the global logger with
// environment-aware handler levels, custom retention and file size limit
func InitLoggerWithRetentionAndSize(logDir string, env config.Environment, logLevel string, retentionWeeks int, maxFileSize int64) {
	consoleLevel := GetConsoleLogLevel(env, logLevel, false)
	logger, rotating := SetupLoggerWithOptions(logDir, consoleLevel, GetFileLogLevel(), retentionWeeks, maxFileSize)

	DefaultLoggingService = &LoggingService{
		Logger:   logger,
		rotating: rotating,
	}
	slog.SetDefault(logger)
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		fallback := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		fallback.Info(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		fallback := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		fallback.Error(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Error(msg, args...)
}

func Warn(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		fallback := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
		fallback.Warn(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		// Fallback to console logger if not initialized
		fallback := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		fallback.Debug(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Debug(msg, args...)
}
