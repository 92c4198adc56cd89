// Package validation provides input and template validation for the
// anamnese API.
package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/interfaces"
)

// Dangerous patterns as plain substrings; strings.Contains is much faster
// than regex for this kind of screening and free-text anamnesis answers are
// checked on every draft save.
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
	"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
	"eval(", "expression(", "url(", "@import", "binding(", "behavior(",
	// SQL injection patterns
	"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
	"xp_", "sp_", "exec(", "execute(",
	// Path traversal patterns
	"../", "..\\", "%2e%2e", "file://",
}

// Validator implements the interfaces.Validator interface
type Validator struct{}

// Compile-time check to ensure Validator implements the interface
var _ interfaces.Validator = (*Validator)(nil)

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateInput screens user-supplied free text for injection payloads.
// Anamnesis answers legitimately contain Scandinavian letters and medical
// punctuation, so screening is blocklist-based rather than allowlist-based.
func (v *Validator) ValidateInput(input string) error {
	if len(input) > 5000 {
		return fmt.Errorf("input too long: %d characters", len(input))
	}

	lowered := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Errorf("input contains disallowed pattern")
		}
	}

	return nil
}

// ValidateToken validates the access-token format before any store lookup.
// Tokens are uuids; anything else is rejected without touching the store.
func (v *Validator) ValidateToken(token string) error {
	if token == "" {
		return fmt.Errorf("missing token")
	}
	if _, err := uuid.Parse(token); err != nil {
		return fmt.Errorf("malformed token")
	}
	return nil
}

// ValidateAnswers screens every textual answer in a draft, including values
// nested in lists and legacy wrappers.
func (v *Validator) ValidateAnswers(answers entities.AnswerSet) error {
	for id, raw := range answers {
		if err := v.validateAnswerValue(raw); err != nil {
			return fmt.Errorf("answer %q: %w", id, err)
		}
	}
	return nil
}

func (v *Validator) validateAnswerValue(raw any) error {
	switch value := entities.UnwrapValue(raw).(type) {
	case string:
		return v.ValidateInput(value)
	case []any:
		for _, item := range value {
			if err := v.validateAnswerValue(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateTemplate checks a single template for structural validity.
func (v *Validator) ValidateTemplate(t *entities.FormTemplate) error {
	if t == nil {
		return fmt.Errorf("template is nil")
	}
	if t.ID == "" {
		return fmt.Errorf("missing template id")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("empty title for template %s", t.ID)
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("template %s has no sections", t.ID)
	}
	return nil
}

// ReportTemplateQuality generates an integrity report across all published
// templates: duplicate question ids, follow-up references that do not
// resolve to a marked template question, and conditions pointing at unknown
// questions. These degrade gracefully at render time, but they are form
// definition bugs the store admins need to hear about at reload.
func (v *Validator) ReportTemplateQuality(templates []entities.FormTemplate) *interfaces.TemplateQualityReport {
	report := &interfaces.TemplateQualityReport{}

	for ti := range templates {
		t := &templates[ti]
		if t.ID == "" {
			report.TemplatesWithoutID++
		}
		if strings.TrimSpace(t.Title) == "" {
			report.TemplatesWithoutTitle++
		}

		ids := make(map[string]bool)
		for si := range t.Sections {
			for qi := range t.Sections[si].Questions {
				q := &t.Sections[si].Questions[qi]
				if ids[q.ID] {
					report.DuplicateQuestionIDs = append(report.DuplicateQuestionIDs, t.ID+"/"+q.ID)
				}
				ids[q.ID] = true
			}
		}

		for si := range t.Sections {
			section := &t.Sections[si]
			if section.ShowIf != nil && !ids[section.ShowIf.Question] {
				report.UnknownConditionRefs = append(report.UnknownConditionRefs, t.ID+"/"+section.ShowIf.Question)
			}

			for qi := range section.Questions {
				q := &section.Questions[qi]

				if q.ShowIf != nil && !ids[q.ShowIf.Question] {
					report.UnknownConditionRefs = append(report.UnknownConditionRefs, t.ID+"/"+q.ShowIf.Question)
				}

				for _, followupID := range q.FollowupQuestionIDs {
					target, found := t.QuestionByID(followupID)
					switch {
					case !found:
						report.DanglingFollowupRefs = append(report.DanglingFollowupRefs, t.ID+"/"+followupID)
					case !target.IsFollowupTemplate:
						report.UnmarkedFollowupRefs = append(report.UnmarkedFollowupRefs, t.ID+"/"+followupID)
					}
				}
			}
		}
	}

	return report
}
