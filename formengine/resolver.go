package formengine

import (
	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/logging"
)

// ResolveSteps computes the ordered wizard steps for the current answer
// snapshot: one step per visible non-empty section, each step's question
// list filtered to the exact render set (static questions surviving their
// conditions plus dynamic follow-ups, mode-appropriate).
//
// Resolution runs on every answer change with no debounce, so it stays
// linear in the total question count. Any panic during resolution collapses
// to an empty step list at this boundary; callers treat an empty result as
// "nothing to show", never as a crash.
func ResolveSteps(template *entities.FormTemplate, answers entities.AnswerSet, mode string) (steps []entities.Step) {
	templateID := ""
	if template != nil {
		templateID = template.ID
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Form resolution failed, rendering nothing",
				"template_id", templateID,
				"panic", r)
			steps = nil
		}
	}()

	if template == nil {
		return nil
	}
	if mode == "" {
		mode = entities.ModePatient
	}

	for si := range template.Sections {
		section := &template.Sections[si]

		// A hidden section excludes all its questions from this render
		// pass, regardless of their own conditions.
		if !EvaluateCondition(section.ShowIf, answers) {
			continue
		}

		questions := resolveSectionQuestions(template, section, answers, mode)
		if len(questions) == 0 {
			continue
		}

		steps = append(steps, entities.Step{
			SectionTitle: section.Title,
			Questions:    questions,
		})
	}

	return steps
}

// resolveSectionQuestions filters the section's static questions and appends
// the dynamic follow-ups after them.
func resolveSectionQuestions(template *entities.FormTemplate, section *entities.FormSection, answers entities.AnswerSet, mode string) []entities.RenderedQuestion {
	var out []entities.RenderedQuestion

	for qi := range section.Questions {
		q := section.Questions[qi]

		// Follow-up templates never render directly.
		if q.IsFollowupTemplate {
			continue
		}

		if q.ShowInMode != "" && q.ShowInMode != mode {
			continue
		}

		if !EvaluateCondition(q.ShowIf, answers) {
			continue
		}

		out = append(out, entities.RenderedQuestion{FormQuestion: q})
	}

	out = append(out, GenerateFollowups(template, section, answers)...)

	return out
}
