// Package interfaces defines core abstractions for the anamnese API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"errors"
	"time"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
)

// Sentinel errors the entry store returns so handlers can map token
// problems to distinguishable HTTP outcomes.
var (
	ErrEntryNotFound    = errors.New("entry not found")
	ErrTokenExpired     = errors.New("token expired")
	ErrAlreadySubmitted = errors.New("entry already submitted")
)

// TemplateQualityReport provides a summary of form-definition integrity
// issues found at reload time. Entries are "templateID/questionID" pairs.
type TemplateQualityReport struct {
	DuplicateQuestionIDs  []string
	DanglingFollowupRefs  []string
	UnmarkedFollowupRefs  []string // referenced as follow-up but missing the template flag
	UnknownConditionRefs  []string
	TemplatesWithoutID    int
	TemplatesWithoutTitle int
}

// TemplateStore defines the contract for template storage. It provides
// thread-safe access to published form templates with atomic operations for
// zero-downtime reloads.
type TemplateStore interface {
	GetTemplates() []entities.FormTemplate
	GetTemplatesMap() map[string]entities.FormTemplate
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time
	SetServerStartTime(t time.Time)

	UpdateData(templates []entities.FormTemplate, templatesMap map[string]entities.FormTemplate)
	BeginUpdate() bool
	EndUpdate()
}

// EntryStore defines the contract for intake-entry storage: token issuance
// targets, draft auto-saves and final submissions. SaveDraft and Submit
// return the sentinel errors above for the failure taxonomy.
type EntryStore interface {
	Create(entry entities.IntakeEntry) error
	GetByToken(token string) (entities.IntakeEntry, error)
	SaveDraft(token string, draft entities.AnswerSet, now time.Time) error
	Submit(token string, submission entities.StoredSubmission, now time.Time) (entities.IntakeEntry, error)

	ListSubmissions(storeID string) []entities.IntakeEntry
	GetSubmission(id string) (entities.IntakeEntry, error)

	SweepExpired(now time.Time) int
	Counts() (pending int, submitted int)
}

// TemplateParser defines the contract for loading form templates from their
// source directory into publishable snapshots.
type TemplateParser interface {
	ParseAllTemplates() ([]entities.FormTemplate, map[string]entities.FormTemplate, error)
}

// Scheduler defines the contract for background job scheduling: template
// reloads, expired-entry sweeps and health monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// Validator defines the contract for input and template validation.
type Validator interface {
	// ValidateInput validates user-supplied strings
	ValidateInput(input string) error

	// ValidateToken validates the access-token format before any lookup
	ValidateToken(token string) error

	// ValidateAnswers screens every textual answer in a draft or submission
	ValidateAnswers(answers entities.AnswerSet) error

	// ValidateTemplate checks a single template for structural validity
	ValidateTemplate(t *entities.FormTemplate) error

	// ReportTemplateQuality generates an integrity report across templates
	ReportTemplateQuality(templates []entities.FormTemplate) *TemplateQualityReport
}
