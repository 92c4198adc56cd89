package formengine

import (
	"testing"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
)

func TestDecodeStoredSubmissionDirectShape(t *testing.T) {
	raw := []byte(`{
		"formattedAnswers": {
			"formTitle": "Synsundersøkelse",
			"submittedAt": "2026-03-14T10:30:00Z",
			"sections": [
				{"sectionTitle": "Helse", "responses": [{"id": "smoking", "answer": "No"}]}
			]
		},
		"rawAnswers": {"smoking": "No"},
		"metadata": {"templateId": "anamnese-standard", "formatVersion": 2, "submitterRole": "patient"}
	}`)

	sub, err := DecodeStoredSubmission(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if sub.FormattedAnswers.FormTitle != "Synsundersøkelse" {
		t.Errorf("unexpected form title: %q", sub.FormattedAnswers.FormTitle)
	}
	if sub.Metadata.SubmitterRole != "patient" {
		t.Errorf("unexpected submitter role: %q", sub.Metadata.SubmitterRole)
	}
}

func TestDecodeStoredSubmissionLegacyDoubleNested(t *testing.T) {
	// Older clients wrapped the formatted block twice.
	raw := []byte(`{
		"formattedAnswers": {
			"formattedAnswers": {
				"formTitle": "Synsundersøkelse",
				"sections": [
					{"sectionTitle": "Helse", "responses": [{"id": "smoking", "answer": "No"}]}
				]
			}
		},
		"rawAnswers": {"smoking": "No"},
		"metadata": {"templateId": "anamnese-standard", "formatVersion": 1}
	}`)

	sub, err := DecodeStoredSubmission(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if sub.FormattedAnswers.FormTitle != "Synsundersøkelse" {
		t.Errorf("double-nested wrapper not unwrapped, got title %q", sub.FormattedAnswers.FormTitle)
	}
	if len(sub.FormattedAnswers.Sections) != 1 {
		t.Errorf("expected 1 section after unwrapping, got %d", len(sub.FormattedAnswers.Sections))
	}
}

func TestEncodeDecodeStoredSubmission(t *testing.T) {
	original := entities.StoredSubmission{
		FormattedAnswers: entities.FormattedAnswers{
			FormTitle: "Anamnese",
			Sections: []entities.SectionResponses{
				{SectionTitle: "Helse", Responses: []entities.QuestionResponse{{ID: "q1", Answer: "ja"}}},
			},
		},
		RawAnswers: entities.AnswerSet{"q1": "ja"},
		Metadata:   entities.SubmissionMetadata{TemplateID: "t", FormatVersion: entities.FormatVersion},
	}

	data, err := EncodeStoredSubmission(original)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeStoredSubmission(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.FormattedAnswers.FormTitle != original.FormattedAnswers.FormTitle {
		t.Errorf("round trip lost form title")
	}
	if decoded.Metadata.TemplateID != "t" {
		t.Errorf("round trip lost metadata")
	}
}
