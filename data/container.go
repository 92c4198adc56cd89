// Package data provides thread-safe storage for the anamnese API: the
// template container with atomic snapshots for zero-downtime reloads, and
// the intake entry store backing the token-gated patient flow.
package data

import (
	"sync/atomic"
	"time"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/interfaces"
	"github.com/anamnesportalen/anamnese-api/logging"
)

// Compile-time check to ensure TemplateContainer implements TemplateStore
var _ interfaces.TemplateStore = (*TemplateContainer)(nil)

// TemplateContainer holds the published form templates with atomic pointers
// for zero-downtime reloads. Readers always see a complete snapshot; a
// reload in progress never exposes a half-written template set.
type TemplateContainer struct {
	templates       atomic.Value // []entities.FormTemplate
	templatesMap    atomic.Value // map[string]entities.FormTemplate
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewTemplateContainer creates a new TemplateContainer with empty data
func NewTemplateContainer() *TemplateContainer {
	tc := &TemplateContainer{}
	tc.templates.Store(make([]entities.FormTemplate, 0))
	tc.templatesMap.Store(make(map[string]entities.FormTemplate))
	tc.lastUpdated.Store(time.Time{})
	tc.serverStartTime.Store(time.Time{})
	return tc
}

// Thread-safe getters with type check

// GetTemplates returns the published templates
func (tc *TemplateContainer) GetTemplates() []entities.FormTemplate {
	if v := tc.templates.Load(); v != nil {
		if templates, ok := v.([]entities.FormTemplate); ok {
			return templates
		}
	}

	logging.Warn("Template list is empty or invalid")
	return []entities.FormTemplate{}
}

// GetTemplatesMap returns the templates map for O(1) lookups by id
func (tc *TemplateContainer) GetTemplatesMap() map[string]entities.FormTemplate {
	if v := tc.templatesMap.Load(); v != nil {
		if templatesMap, ok := v.(map[string]entities.FormTemplate); ok {
			return templatesMap
		}
	}

	logging.Warn("Templates map is empty or invalid")
	return make(map[string]entities.FormTemplate)
}

// GetTemplate returns the template with the given id from the current
// snapshot.
func (tc *TemplateContainer) GetTemplate(id string) (entities.FormTemplate, bool) {
	template, exists := tc.GetTemplatesMap()[id]
	return template, exists
}

// GetLastUpdated returns the timestamp of the last template reload
func (tc *TemplateContainer) GetLastUpdated() time.Time {
	if v := tc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a template reload is currently in progress
func (tc *TemplateContainer) IsUpdating() bool {
	return tc.updating.Load()
}

// SetServerStartTime sets the server start time
func (tc *TemplateContainer) SetServerStartTime(startTime time.Time) {
	tc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (tc *TemplateContainer) GetServerStartTime() time.Time {
	if v := tc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically publishes a new template snapshot
func (tc *TemplateContainer) UpdateData(templates []entities.FormTemplate, templatesMap map[string]entities.FormTemplate) {
	// Atomic swap (zero downtime replacement)
	tc.templates.Store(templates)
	tc.templatesMap.Store(templatesMap)
	tc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a template reload operation
// Returns true if the reload can proceed, false if another is in progress
func (tc *TemplateContainer) BeginUpdate() bool {
	return tc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a template reload operation
func (tc *TemplateContainer) EndUpdate() {
	tc.updating.Store(false)
}
