// Package handlers provides HTTP request handlers for the anamnese API:
// token issuance, the token-gated form flow (fetch, resolve, draft, submit)
// and the optician review endpoints, with dependency injection for the
// stores and validator.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/anamnesportalen/anamnese-api/formengine"
	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/interfaces"
	"github.com/anamnesportalen/anamnese-api/logging"
	"github.com/anamnesportalen/anamnese-api/metrics"
	"github.com/anamnesportalen/anamnese-api/tokens"
)

// HTTPHandlerImpl bundles the intake endpoints with their injected dependencies
type HTTPHandlerImpl struct {
	templates        interfaces.TemplateStore
	entries          interfaces.EntryStore
	validator        interfaces.Validator
	issuer           *tokens.Issuer
	health           interfaces.HealthChecker
	autosaveInterval time.Duration
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// autosaveInterval is advertised to kiosk clients on every form fetch so the
// auto-save cadence is a server-side setting.
func NewHTTPHandler(templates interfaces.TemplateStore, entries interfaces.EntryStore, validator interfaces.Validator, issuer *tokens.Issuer, health interfaces.HealthChecker, autosaveInterval time.Duration) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		templates:        templates,
		entries:          entries,
		validator:        validator,
		issuer:           issuer,
		health:           health,
		autosaveInterval: autosaveInterval,
	}
}

type issueTokenRequest struct {
	StoreID    string            `json:"storeId"`
	TemplateID string            `json:"templateId"`
	Customer   entities.Customer `json:"customer"`
}

type resolveRequest struct {
	Answers entities.AnswerSet `json:"answers"`
	Mode    string             `json:"mode"`
}

type draftRequest struct {
	FormData entities.AnswerSet `json:"formData"`
}

type submitRequest struct {
	FormData entities.AnswerSet `json:"formData"`
	Mode     string             `json:"mode"`
}

// IssueToken registers a pending intake entry and returns its access token.
// The patient-facing flow is entirely token-gated from here on.
func (h *HTTPHandlerImpl) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Customer.Name == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing customer name")
		return
	}
	for _, field := range []string{req.Customer.Name, req.Customer.Email, req.Customer.Phone, req.Customer.BookingRef} {
		if err := h.validator.ValidateInput(field); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	entry, err := h.issuer.Issue(req.StoreID, req.TemplateID, req.Customer, time.Now())
	switch {
	case errors.Is(err, tokens.ErrUnknownTemplate):
		RespondWithError(w, http.StatusNotFound, "Unknown form template")
		return
	case errors.Is(err, tokens.ErrTemplateNotForStore):
		RespondWithError(w, http.StatusForbidden, "Template not available for this store")
		return
	case err != nil:
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.TokensIssuedTotal.Inc()
	RespondWithJSON(w, r, http.StatusCreated, map[string]any{
		"token":     entry.Token,
		"expiresAt": entry.ExpiresAt,
	})
}

// GetForm returns the entry's template, the saved draft and the resolved
// steps for the current draft, rendered in patient mode.
func (h *HTTPHandlerImpl) GetForm(w http.ResponseWriter, r *http.Request) {
	entry, template, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	steps := formengine.ResolveSteps(template, entry.Draft, entities.ModePatient)

	RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"template":                template,
		"draft":                   entry.Draft,
		"steps":                   steps,
		"expiresAt":               entry.ExpiresAt,
		"autosaveIntervalSeconds": int(h.autosaveInterval / time.Second),
	})
}

// ResolveSteps re-resolves visibility for a client-supplied answer snapshot.
// The kiosk calls this on every answer change instead of replicating the
// engine client-side.
func (h *HTTPHandlerImpl) ResolveSteps(w http.ResponseWriter, r *http.Request) {
	_, template, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode, err := normalizeMode(req.Mode)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	steps := formengine.ResolveSteps(template, req.Answers, mode)
	RespondWithJSON(w, r, http.StatusOK, map[string]any{"steps": steps})
}

// SaveDraft stores the in-progress answer snapshot. The response status
// makes the failure reason distinguishable so the auto-save client can react.
func (h *HTTPHandlerImpl) SaveDraft(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.validator.ValidateToken(token); err != nil {
		metrics.DraftSavesTotal.WithLabelValues("invalid_token").Inc()
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.DraftSavesTotal.WithLabelValues("invalid_body").Inc()
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.ValidateAnswers(req.FormData); err != nil {
		metrics.DraftSavesTotal.WithLabelValues("invalid_answers").Inc()
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	if err := h.entries.SaveDraft(token, req.FormData, now); err != nil {
		h.respondEntryError(w, err, "draft")
		return
	}

	metrics.DraftSavesTotal.WithLabelValues("saved").Inc()
	RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"status":  "saved",
		"savedAt": now,
	})
}

// Submit formats the final answer set server-side and stores the submission.
// A previously stored payload shape (formattedAnswers bundled by an older
// client, possibly double-nested) is accepted for backward compatibility;
// the server-side formatting stays authoritative either way.
func (h *HTTPHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	entry, template, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	answers := req.FormData
	if answers == nil {
		// Legacy clients ship the full bundled payload instead of formData.
		if legacy, decodeErr := formengine.DecodeStoredSubmission(body); decodeErr == nil {
			answers = legacy.RawAnswers
		}
	}
	if answers == nil {
		RespondWithError(w, http.StatusBadRequest, "Missing form data")
		return
	}

	if err := h.validator.ValidateAnswers(answers); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode, err := normalizeMode(req.Mode)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	formatted := formengine.FormatAnswers(template, answers, mode, now)

	submission := entities.StoredSubmission{
		FormattedAnswers: formatted,
		RawAnswers:       answers,
		Metadata: entities.SubmissionMetadata{
			TemplateID:    template.ID,
			TemplateTitle: template.Title,
			SubmittedAt:   now,
			FormatVersion: entities.FormatVersion,
			SubmitterRole: mode,
		},
	}

	submitted, err := h.entries.Submit(entry.Token, submission, now)
	if err != nil {
		h.respondEntryError(w, err, "submit")
		return
	}

	metrics.SubmissionsTotal.Inc()
	logging.Info("Form submitted",
		"template", template.ID,
		"store", submitted.StoreID,
		"submission_id", submitted.SubmissionID)

	RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"submissionId":     submitted.SubmissionID,
		"formattedAnswers": formatted,
	})
}

// submissionSummary is the review-list projection of a submitted entry
type submissionSummary struct {
	SubmissionID string    `json:"submissionId"`
	StoreID      string    `json:"storeId"`
	TemplateID   string    `json:"templateId"`
	CustomerName string    `json:"customerName"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// ListSubmissions returns the submitted entries for the optician review
// list, newest first. An empty store parameter lists all stores.
func (h *HTTPHandlerImpl) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	storeID := r.URL.Query().Get("store")
	if err := h.validator.ValidateInput(storeID); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	submitted := h.entries.ListSubmissions(storeID)
	summaries := make([]submissionSummary, 0, len(submitted))
	for _, entry := range submitted {
		summaries = append(summaries, submissionSummary{
			SubmissionID: entry.SubmissionID,
			StoreID:      entry.StoreID,
			TemplateID:   entry.TemplateID,
			CustomerName: entry.Customer.Name,
			SubmittedAt:  entry.Submission.Metadata.SubmittedAt,
		})
	}

	RespondWithJSON(w, r, http.StatusOK, summaries)
}

// GetSubmission returns one stored submission with its customer context
func (h *HTTPHandlerImpl) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.entries.GetSubmission(id)
	if err != nil {
		RespondWithError(w, http.StatusNotFound, "Submission not found")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"submissionId": entry.SubmissionID,
		"storeId":      entry.StoreID,
		"customer":     entry.Customer,
		"submission":   entry.Submission,
	})
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.health.HealthCheck()

	response := map[string]any{"status": status}
	for k, v := range details {
		response[k] = v
	}

	RespondWithJSON(w, r, httpStatus, response)
}

// loadEntry validates the token path parameter and resolves the entry plus
// its template, writing the matching error response on failure.
func (h *HTTPHandlerImpl) loadEntry(w http.ResponseWriter, r *http.Request) (entities.IntakeEntry, *entities.FormTemplate, bool) {
	token := chi.URLParam(r, "token")
	if err := h.validator.ValidateToken(token); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return entities.IntakeEntry{}, nil, false
	}

	entry, err := h.entries.GetByToken(token)
	if err != nil {
		RespondWithError(w, http.StatusNotFound, "Unknown token")
		return entities.IntakeEntry{}, nil, false
	}

	if entry.Status == entities.EntryStatusSubmitted {
		RespondWithError(w, http.StatusConflict, "Entry already submitted")
		return entities.IntakeEntry{}, nil, false
	}

	if entry.Expired(time.Now()) {
		RespondWithError(w, http.StatusGone, "Token expired")
		return entities.IntakeEntry{}, nil, false
	}

	template, exists := h.templates.GetTemplatesMap()[entry.TemplateID]
	if !exists {
		logging.Error("Entry references a template missing from the snapshot",
			"template", entry.TemplateID, "entry", entry.ID)
		RespondWithError(w, http.StatusServiceUnavailable, "Form template unavailable")
		return entities.IntakeEntry{}, nil, false
	}

	return entry, &template, true
}

// respondEntryError maps the store's sentinel errors onto the draft/submit
// status taxonomy: 404 unknown, 410 expired, 409 already submitted.
func (h *HTTPHandlerImpl) respondEntryError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, interfaces.ErrEntryNotFound):
		if op == "draft" {
			metrics.DraftSavesTotal.WithLabelValues("not_found").Inc()
		}
		RespondWithError(w, http.StatusNotFound, "Unknown token")
	case errors.Is(err, interfaces.ErrTokenExpired):
		if op == "draft" {
			metrics.DraftSavesTotal.WithLabelValues("expired").Inc()
		}
		RespondWithError(w, http.StatusGone, "Token expired")
	case errors.Is(err, interfaces.ErrAlreadySubmitted):
		if op == "draft" {
			metrics.DraftSavesTotal.WithLabelValues("already_submitted").Inc()
		}
		RespondWithError(w, http.StatusConflict, "Entry already submitted")
	default:
		logging.Error("Entry operation failed", "op", op, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// normalizeMode validates the render mode, defaulting to patient
func normalizeMode(mode string) (string, error) {
	switch mode {
	case "", entities.ModePatient:
		return entities.ModePatient, nil
	case entities.ModeOptician:
		return entities.ModeOptician, nil
	default:
		return "", errors.New("mode must be patient or optician")
	}
}
