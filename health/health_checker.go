// Package health provides health checking functionality for the anamnese API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/anamnesportalen/anamnese-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	templates interfaces.TemplateStore
	entries   interfaces.EntryStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(templates interfaces.TemplateStore, entries interfaces.EntryStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		templates: templates,
		entries:   entries,
	}
}

// HealthCheck returns HTTP-specific health data for the /health endpoint.
// The service is unhealthy without templates (nothing can be rendered) and
// degraded when the template snapshot has gone stale, since store admins
// expect edits to appear within a reload interval.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	templates := h.templates.GetTemplates()
	lastUpdate := h.templates.GetLastUpdated()
	isUpdating := h.templates.IsUpdating()
	pending, submitted := h.entries.Counts()

	snapshotAge := time.Since(lastUpdate)

	switch {
	case len(templates) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case snapshotAge > 24*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case snapshotAge > 2*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_reload":        lastUpdate.Format(time.RFC3339),
		"snapshot_age_hours": math.Round(snapshotAge.Hours()*10) / 10,
		"templates":          len(templates),
		"pending_entries":    pending,
		"submitted_entries":  submitted,
		"is_updating":        isUpdating,
	}

	return status, data, httpStatus
}
