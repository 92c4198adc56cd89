package entities

// Question types understood by the renderer. Anything else falls back to
// free-text handling.
const (
	QuestionTypeText     = "text"
	QuestionTypeTextarea = "textarea"
	QuestionTypeNumber   = "number"
	QuestionTypeRadio    = "radio"
	QuestionTypeDropdown = "dropdown"
	QuestionTypeCheckbox = "checkbox"
	QuestionTypeDate     = "date"
)

// Render modes. Patient is the default; optician unlocks questions marked
// with showInMode.
const (
	ModePatient  = "patient"
	ModeOptician = "optician"
)

// FormTemplate is the static JSON schema describing a form's sections and
// questions. Templates are immutable once published to the container; a
// reload produces a whole new snapshot.
type FormTemplate struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Version  int           `json:"version"`
	StoreIDs []string      `json:"storeIds,omitempty"`
	Sections []FormSection `json:"sections"`
}

// FormSection is a named group of questions, shown or hidden as a whole via
// its condition.
type FormSection struct {
	Title     string         `json:"sectionTitle"`
	ShowIf    *Condition     `json:"showIf,omitempty"`
	Questions []FormQuestion `json:"questions"`
}

// FormQuestion is a single question definition. A question carrying
// IsFollowupTemplate is never rendered directly; it is cloned per selected
// parent value at resolve time.
type FormQuestion struct {
	ID                  string     `json:"id"`
	Type                string     `json:"type"`
	Label               string     `json:"label"`
	Options             []string   `json:"options,omitempty"`
	ShowIf              *Condition `json:"showIf,omitempty"`
	ShowInMode          string     `json:"showInMode,omitempty"`
	FollowupQuestionIDs []string   `json:"followupQuestionIds,omitempty"`
	IsFollowupTemplate  bool       `json:"isFollowupTemplate,omitempty"`
}

// HasOptions reports whether the question type constrains answers to a fixed
// option list.
func (q *FormQuestion) HasOptions() bool {
	switch q.Type {
	case QuestionTypeRadio, QuestionTypeDropdown, QuestionTypeCheckbox:
		return len(q.Options) > 0
	}
	return false
}

// HasOption reports whether value is among the question's current options.
func (q *FormQuestion) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Condition gates the visibility of a section or question on another
// question's current answer. Question references must stay within the same
// template.
type Condition struct {
	Question string `json:"question"`
	Equals   any    `json:"equals,omitempty"`
	Contains any    `json:"contains,omitempty"`
}

// QuestionByID returns the template question with the given id, searching
// all sections in order.
func (t *FormTemplate) QuestionByID(id string) (FormQuestion, bool) {
	for si := range t.Sections {
		for qi := range t.Sections[si].Questions {
			if t.Sections[si].Questions[qi].ID == id {
				return t.Sections[si].Questions[qi], true
			}
		}
	}
	return FormQuestion{}, false
}
