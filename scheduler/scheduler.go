// Package scheduler provides background jobs for the anamnese API: periodic
// form-template reloads, hourly expired-token sweeps, and snapshot staleness
// monitoring, coordinated with the template container using dependency
// injection.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/anamnesportalen/anamnese-api/interfaces"
	"github.com/anamnesportalen/anamnese-api/logging"
	"github.com/anamnesportalen/anamnese-api/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles template reloads and entry maintenance using dependency injection
type Scheduler struct {
	templates      interfaces.TemplateStore
	entries        interfaces.EntryStore
	parser         interfaces.TemplateParser
	validator      interfaces.Validator
	reloadInterval time.Duration
	scheduler      *gocron.Scheduler
	monitorStop    chan struct{}
	stopOnce       sync.Once
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(templates interfaces.TemplateStore, entries interfaces.EntryStore, parser interfaces.TemplateParser, validator interfaces.Validator, reloadInterval time.Duration) *Scheduler {
	return &Scheduler{
		templates:      templates,
		entries:        entries,
		parser:         parser,
		validator:      validator,
		reloadInterval: reloadInterval,
		scheduler:      gocron.NewScheduler(time.Local),
		monitorStop:    make(chan struct{}),
	}
}

// Start performs the initial template load and schedules the background jobs
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.reloadTemplates(); err != nil {
		logging.Error("Failed to perform initial template load", "error", err)
		return fmt.Errorf("initial template load failed: %w", err)
	}

	// Periodic template reload so store admins see edits without a restart
	_, err := s.scheduler.Every(s.reloadInterval).Do(func() {
		if err := s.reloadTemplates(); err != nil {
			logging.Error("Failed to reload templates", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule template reloads", "error", err)
		return fmt.Errorf("failed to schedule template reloads: %w", err)
	}

	// Hourly sweep of expired pending entries
	_, err = s.scheduler.Every(1).Hours().Do(func() {
		removed := s.entries.SweepExpired(time.Now())
		if removed > 0 {
			logging.Info("Expired entry sweep completed", "removed", removed)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule entry sweep", "error", err)
		return fmt.Errorf("failed to schedule entry sweep: %w", err)
	}

	s.scheduler.StartAsync()

	// Start staleness monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduled jobs and the staleness monitor. Safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.monitorStop) })
	s.scheduler.Stop()
}

// reloadTemplates parses the template directory and atomically publishes the
// new snapshot, logging an integrity report for the form definitions
func (s *Scheduler) reloadTemplates() error {
	// Prevent concurrent reloads
	if !s.templates.BeginUpdate() {
		logging.Info("Template reload already in progress, skipping...")
		return nil
	}
	defer s.templates.EndUpdate()

	logging.Info("Starting template reload")
	start := time.Now()

	newTemplates, newTemplatesMap, err := s.parser.ParseAllTemplates()
	if err != nil {
		metrics.TemplateReloadsTotal.WithLabelValues("error").Inc()
		logging.Error("Failed to parse templates", "error", err)
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	report := s.validator.ReportTemplateQuality(newTemplates)

	if len(report.DuplicateQuestionIDs) > 0 {
		logging.Warn("Duplicate question ids detected",
			"total", len(report.DuplicateQuestionIDs),
			"questions", report.DuplicateQuestionIDs,
		)
	}

	if len(report.DanglingFollowupRefs) > 0 {
		logging.Warn("Dangling follow-up references detected",
			"total", len(report.DanglingFollowupRefs),
			"questions", report.DanglingFollowupRefs,
		)
	}

	if len(report.UnmarkedFollowupRefs) > 0 {
		logging.Warn("Follow-up references without the template flag detected",
			"total", len(report.UnmarkedFollowupRefs),
			"questions", report.UnmarkedFollowupRefs,
		)
	}

	if len(report.UnknownConditionRefs) > 0 {
		logging.Warn("Conditions referencing unknown questions detected",
			"total", len(report.UnknownConditionRefs),
			"questions", report.UnknownConditionRefs,
		)
	}

	// Atomic update using injected template store
	s.templates.UpdateData(newTemplates, newTemplatesMap)
	metrics.TemplateReloadsTotal.WithLabelValues("success").Inc()
	metrics.TemplatesLoaded.Set(float64(len(newTemplates)))

	elapsed := time.Since(start)
	logging.Info("Template reload completed", "duration", elapsed.String(), "template_count", len(newTemplates))

	return nil
}

// startHealthMonitoring warns when the template snapshot goes stale, which
// usually means the reload job is failing silently
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.monitorStop:
				return
			case <-ticker.C:
				lastUpdate := s.templates.GetLastUpdated()
				if time.Since(lastUpdate) > 3*s.reloadInterval {
					logging.Warn("Templates haven't been reloaded recently",
						"last_reload", lastUpdate.Format(time.RFC3339))
				}
			}
		}
	}()
}
