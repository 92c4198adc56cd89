package formengine

import (
	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/logging"
)

// GenerateFollowups expands the follow-up templates referenced by the
// section's questions into one runtime instance per selected parent value.
// Output order is parent-question order, then selected-value order, then
// follow-up id order, so repeated renders of the same answer set produce the
// identical list.
//
// A referenced follow-up id that does not resolve to a template question is
// a data-integrity problem in the form definition: it is logged and the
// combination is skipped rather than failing the render.
func GenerateFollowups(template *entities.FormTemplate, section *entities.FormSection, answers entities.AnswerSet) []entities.RenderedQuestion {
	var out []entities.RenderedQuestion

	for qi := range section.Questions {
		parent := &section.Questions[qi]
		if len(parent.FollowupQuestionIDs) == 0 {
			continue
		}

		raw, ok := answers.Value(parent.ID)
		if !ok || raw == nil {
			continue
		}

		selected := entities.SelectedValues(raw)
		for _, value := range selected {
			for _, followupID := range parent.FollowupQuestionIDs {
				tmpl, found := template.QuestionByID(followupID)
				if !found || !tmpl.IsFollowupTemplate {
					logging.Warn("Follow-up template missing or not marked as template",
						"template_id", template.ID,
						"parent_question", parent.ID,
						"followup_id", followupID)
					continue
				}

				out = append(out, materializeFollowup(tmpl, parent.ID, value))
			}
		}
	}

	return out
}

// materializeFollowup clones a follow-up template for one selected parent
// value: the {option} placeholder in the label is substituted, the template
// marker stripped, and the runtime identity stamped.
func materializeFollowup(tmpl entities.FormQuestion, parentID string, value any) entities.RenderedQuestion {
	instance := tmpl
	instance.IsFollowupTemplate = false
	instance.Label = entities.SubstituteOption(tmpl.Label, value)
	instance.ID = entities.RuntimeID(parentID, tmpl.ID, value)

	return entities.RenderedQuestion{
		FormQuestion: instance,
		Dynamic:      true,
		ParentID:     parentID,
		ParentValue:  entities.ValueString(value),
		OriginalID:   tmpl.ID,
	}
}
