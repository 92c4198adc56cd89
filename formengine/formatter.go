package formengine

import (
	"time"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
)

// Sentinel option values that ask for a free-text elaboration, with the
// companion-field suffixes they pair with. "Annet"/"Annat" are the
// Norwegian/Swedish template variants.
var otherSentinels = map[string][]string{
	"Other": {"_other"},
	"Annet": {"_annet", "_other"},
	"Annat": {"_annat", "_other"},
}

// FormatAnswers builds the structured submission payload from the raw answer
// snapshot. Visibility is re-derived here with the same condition rules the
// resolver uses rather than trusting any cached step list, since formatting
// may happen long after the last render. Only questions that are currently
// visible and actually answered survive; boolean false and numeric 0 count
// as answers, nil and the empty string do not. Sections left with zero
// responses are omitted entirely.
func FormatAnswers(template *entities.FormTemplate, answers entities.AnswerSet, mode string, now time.Time) entities.FormattedAnswers {
	formatted := entities.FormattedAnswers{
		FormTitle:   template.Title,
		SubmittedAt: now,
	}
	if mode == "" {
		mode = entities.ModePatient
	}

	for si := range template.Sections {
		section := &template.Sections[si]
		if !EvaluateCondition(section.ShowIf, answers) {
			continue
		}

		var responses []entities.QuestionResponse
		for _, q := range resolveSectionQuestions(template, section, answers, mode) {
			responses = appendResponses(responses, template, &q.FormQuestion, answers)
		}

		if len(responses) == 0 {
			continue
		}

		formatted.Sections = append(formatted.Sections, entities.SectionResponses{
			SectionTitle: section.Title,
			Responses:    responses,
		})
	}

	return formatted
}

// appendResponses adds the question's answer (when present and still valid
// against its current options) plus any "Other" companion entry.
func appendResponses(responses []entities.QuestionResponse, template *entities.FormTemplate, q *entities.FormQuestion, answers entities.AnswerSet) []entities.QuestionResponse {
	raw, ok := answers.Value(q.ID)
	if !ok || !entities.IsAnswered(raw) {
		return responses
	}

	value, valid := sanitizeAgainstOptions(q, raw)
	if !valid {
		return responses
	}

	responses = append(responses, entities.QuestionResponse{ID: q.ID, Answer: value})

	// "Other"-style selections carry their elaboration in a companion
	// free-text field named {id}_other (or a localized variant).
	switch q.Type {
	case entities.QuestionTypeRadio, entities.QuestionTypeDropdown:
		if selected, isString := value.(string); isString {
			responses = appendOtherCompanion(responses, template, q.ID, selected, answers)
		}
	}

	return responses
}

// sanitizeAgainstOptions guards against answer leakage: a stored value that
// is no longer among the question's current options (stale after a template
// edit or a parent-selection change) must never reach the submission. For
// multi-select answers the invalid entries are filtered out; a scalar answer
// that is not a current option drops the response entirely.
func sanitizeAgainstOptions(q *entities.FormQuestion, value any) (any, bool) {
	if !q.HasOptions() {
		return value, true
	}

	if list, ok := value.([]any); ok {
		var kept []any
		for _, item := range list {
			if s, isString := entities.UnwrapValue(item).(string); isString && q.HasOption(s) {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return nil, false
		}
		return kept, true
	}

	if s, isString := value.(string); isString {
		if !q.HasOption(s) {
			return nil, false
		}
		return s, true
	}

	return nil, false
}

func appendOtherCompanion(responses []entities.QuestionResponse, template *entities.FormTemplate, questionID, selected string, answers entities.AnswerSet) []entities.QuestionResponse {
	suffixes, isSentinel := otherSentinels[selected]
	if !isSentinel {
		return responses
	}

	for _, suffix := range suffixes {
		companionID := questionID + suffix

		// A companion that is declared as its own template question is
		// formatted through the regular visibility path instead.
		if _, declared := template.QuestionByID(companionID); declared {
			continue
		}

		companion, ok := answers.Value(companionID)
		if ok && entities.IsAnswered(companion) {
			responses = append(responses, entities.QuestionResponse{
				ID:     companionID,
				Answer: companion,
			})
		}
	}

	return responses
}
