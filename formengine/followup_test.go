package formengine

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
)

// smokingTemplate has a follow-up-bearing checkbox question plus the
// follow-up template it references.
func smokingTemplate() *entities.FormTemplate {
	return &entities.FormTemplate{
		ID:    "anamnese-standard",
		Title: "Synsundersøkelse",
		Sections: []entities.FormSection{
			{
				Title: "Livsstil",
				Questions: []entities.FormQuestion{
					{
						ID:                  "smoking",
						Type:                entities.QuestionTypeCheckbox,
						Label:               "Hva røyker du?",
						Options:             []string{"Cigarettes", "Vape", "Pipe"},
						FollowupQuestionIDs: []string{"duration"},
					},
					{
						ID:                 "duration",
						Type:               entities.QuestionTypeText,
						Label:              "Hvor lenge har du brukt {option}?",
						IsFollowupTemplate: true,
					},
				},
			},
		},
	}
}

func TestGenerateFollowupsSingleSelection(t *testing.T) {
	template := smokingTemplate()
	section := &template.Sections[0]

	answers := entities.AnswerSet{"smoking": []any{"Cigarettes"}}
	got := GenerateFollowups(template, section, answers)

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 follow-up, got %d", len(got))
	}

	fq := got[0]
	if !fq.Dynamic {
		t.Error("follow-up instance should be marked dynamic")
	}
	if fq.ParentID != "smoking" || fq.ParentValue != "Cigarettes" {
		t.Errorf("unexpected parent identity: %q / %q", fq.ParentID, fq.ParentValue)
	}
	if fq.OriginalID != "duration" {
		t.Errorf("expected originalId duration, got %q", fq.OriginalID)
	}
	if fq.ID != "smoking__duration__Cigarettes" {
		t.Errorf("unexpected runtime id: %q", fq.ID)
	}
	if fq.IsFollowupTemplate {
		t.Error("template marker must be stripped from runtime instances")
	}
	if fq.Label != "Hvor lenge har du brukt Cigarettes?" {
		t.Errorf("placeholder not substituted: %q", fq.Label)
	}
}

func TestGenerateFollowupsDeterministicOrder(t *testing.T) {
	template := smokingTemplate()
	section := &template.Sections[0]
	answers := entities.AnswerSet{"smoking": []any{"Cigarettes", "Vape"}}

	first := GenerateFollowups(template, section, answers)
	second := GenerateFollowups(template, section, answers)

	wantIDs := []string{"smoking__duration__Cigarettes", "smoking__duration__Vape"}
	for i, want := range wantIDs {
		if first[i].ID != want {
			t.Errorf("run 1: position %d = %q, want %q", i, first[i].ID, want)
		}
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated generation differs (-first +second):\n%s", diff)
	}
}

func TestGenerateFollowupsScalarParentAnswer(t *testing.T) {
	// Legacy radio answers arrive as scalars; they behave as a
	// single-element selection.
	template := smokingTemplate()
	section := &template.Sections[0]
	answers := entities.AnswerSet{"smoking": "Pipe"}

	got := GenerateFollowups(template, section, answers)
	if len(got) != 1 {
		t.Fatalf("expected 1 follow-up for scalar answer, got %d", len(got))
	}
	if got[0].ID != "smoking__duration__Pipe" {
		t.Errorf("unexpected runtime id: %q", got[0].ID)
	}
}

func TestGenerateFollowupsUnansweredParentSkipped(t *testing.T) {
	template := smokingTemplate()
	section := &template.Sections[0]

	if got := GenerateFollowups(template, section, entities.AnswerSet{}); len(got) != 0 {
		t.Errorf("expected no follow-ups without a parent answer, got %d", len(got))
	}
}

func TestGenerateFollowupsMissingTemplateIsSkipped(t *testing.T) {
	template := smokingTemplate()
	template.Sections[0].Questions[0].FollowupQuestionIDs = []string{"duration", "nonexistent"}
	section := &template.Sections[0]

	got := GenerateFollowups(template, section, entities.AnswerSet{"smoking": []any{"Vape"}})
	if len(got) != 1 {
		t.Fatalf("dangling follow-up reference must be skipped, got %d instances", len(got))
	}
	if got[0].OriginalID != "duration" {
		t.Errorf("surviving instance should come from duration, got %q", got[0].OriginalID)
	}
}

func TestGenerateFollowupsNotMarkedAsTemplateIsSkipped(t *testing.T) {
	template := smokingTemplate()
	template.Sections[0].Questions[1].IsFollowupTemplate = false
	section := &template.Sections[0]

	got := GenerateFollowups(template, section, entities.AnswerSet{"smoking": []any{"Vape"}})
	if len(got) != 0 {
		t.Errorf("a referenced question without the template marker must not materialize, got %d", len(got))
	}
}

func TestGenerateFollowupsTwoParentsSameTemplate(t *testing.T) {
	// Two parents referencing the same follow-up template get independently
	// keyed instances even when the selected value is identical.
	template := &entities.FormTemplate{
		ID: "t",
		Sections: []entities.FormSection{
			{
				Title: "Medisiner",
				Questions: []entities.FormQuestion{
					{ID: "meds_current", Type: entities.QuestionTypeCheckbox, FollowupQuestionIDs: []string{"dose"}},
					{ID: "meds_past", Type: entities.QuestionTypeCheckbox, FollowupQuestionIDs: []string{"dose"}},
					{ID: "dose", Type: entities.QuestionTypeText, Label: "Dose for {option}", IsFollowupTemplate: true},
				},
			},
		},
	}
	answers := entities.AnswerSet{
		"meds_current": []any{"Ibux"},
		"meds_past":    []any{"Ibux"},
	}

	got := GenerateFollowups(template, &template.Sections[0], answers)
	if len(got) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(got))
	}
	if got[0].ID == got[1].ID {
		t.Errorf("runtime ids collided: %q", got[0].ID)
	}
}
