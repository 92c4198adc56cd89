package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/anamnesportalen/anamnese-api/config"
	"github.com/anamnesportalen/anamnese-api/data"
	"github.com/anamnesportalen/anamnese-api/handlers"
	"github.com/anamnesportalen/anamnese-api/health"
	"github.com/anamnesportalen/anamnese-api/logging"
	"github.com/anamnesportalen/anamnese-api/scheduler"
	"github.com/anamnesportalen/anamnese-api/server"
	"github.com/anamnesportalen/anamnese-api/templateparser"
	"github.com/anamnesportalen/anamnese-api/tokens"
	"github.com/anamnesportalen/anamnese-api/validation"
)

func main() {
	// Read the env variables from the working directory, falling back to the
	// executable directory when started from elsewhere (systemd, cron).
	if err := godotenv.Load(); err != nil {
		ex, exErr := os.Executable()
		if exErr != nil {
			slog.Error("Failed to get executable path", "error", exErr)
			os.Exit(1)
		}
		if chErr := os.Chdir(filepath.Dir(ex)); chErr != nil {
			slog.Error("Failed to change directory", "error", chErr)
			os.Exit(1)
		}
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	// Structured logging to console and rotating file
	logging.InitLoggerWithRetentionAndSize("logs", cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	defer func() {
		if logging.DefaultLoggingService != nil {
			if err := logging.DefaultLoggingService.Close(); err != nil {
				slog.Error("Failed to close log file", "error", err)
			}
		}
	}()

	container := data.NewTemplateContainer()
	container.SetServerStartTime(time.Now())

	entries := data.NewEntryStore()
	validator := validation.NewValidator()
	parser := templateparser.NewParser(cfg.TemplatesDir)

	sched := scheduler.NewScheduler(container, entries, parser, validator,
		time.Duration(cfg.TemplateReloadMinutes)*time.Minute)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start the template scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	issuer := tokens.NewIssuer(container, entries, time.Duration(cfg.TokenTTLHours)*time.Hour)
	checker := health.NewHealthChecker(container, entries)
	handler := handlers.NewHTTPHandler(container, entries, validator, issuer, checker,
		time.Duration(cfg.AutosaveIntervalSeconds)*time.Second)

	srv := server.NewServer(cfg, handler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	// Attempt graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
