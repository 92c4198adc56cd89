package entities

import "time"

// FormatVersion identifies the shape of submission payloads so stored
// submissions from older clients remain readable.
const FormatVersion = 2

// QuestionResponse is a single answered question in the formatted output.
type QuestionResponse struct {
	ID     string `json:"id"`
	Answer any    `json:"answer"`
}

// SectionResponses groups the surviving responses of one visible section.
// Sections with zero responses are never emitted.
type SectionResponses struct {
	SectionTitle string             `json:"sectionTitle"`
	Responses    []QuestionResponse `json:"responses"`
}

// FormattedAnswers is the structured, submission-ready projection of raw
// answers filtered by visibility. Built once at submission time.
type FormattedAnswers struct {
	FormTitle   string             `json:"formTitle"`
	SubmittedAt time.Time          `json:"submittedAt"`
	Sections    []SectionResponses `json:"sections"`
}

// SubmissionMetadata travels with every stored submission.
type SubmissionMetadata struct {
	TemplateID    string    `json:"templateId"`
	TemplateTitle string    `json:"templateTitle"`
	SubmittedAt   time.Time `json:"submittedAt"`
	FormatVersion int       `json:"formatVersion"`
	SubmitterRole string    `json:"submitterRole"`
}

// StoredSubmission bundles the formatted projection, the raw answer map and
// submission metadata, matching the remote submission endpoint contract.
type StoredSubmission struct {
	FormattedAnswers FormattedAnswers   `json:"formattedAnswers"`
	RawAnswers       AnswerSet          `json:"rawAnswers"`
	Metadata         SubmissionMetadata `json:"metadata"`
}
