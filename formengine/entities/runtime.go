package entities

import (
	"fmt"
	"strings"
)

// RenderedQuestion is the tagged variant the resolver emits: either a static
// template question or a follow-up instance materialized for one selected
// parent value. Template definitions and runtime instances never mix; the
// Dynamic fields are zero for static questions.
type RenderedQuestion struct {
	FormQuestion

	Dynamic     bool   `json:"dynamic,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
	ParentValue string `json:"parentValue,omitempty"`
	OriginalID  string `json:"originalId,omitempty"`
}

// Step is one wizard step: a visible section with its questions already
// filtered to the exact render set (static + dynamic, mode-appropriate).
type Step struct {
	SectionTitle string             `json:"sectionTitle"`
	Questions    []RenderedQuestion `json:"questions"`
}

// RuntimeID derives the identifier of a follow-up instance from the parent
// question id, the follow-up template id and the selected value. Including
// the parent id keeps two parents that reference the same follow-up template
// from colliding, and the derivation is deterministic so repeated renders
// are idempotent.
func RuntimeID(parentID, originalID string, value any) string {
	return fmt.Sprintf("%s__%s__%s", parentID, originalID, ValueString(value))
}

// ValueString renders an answer value the way it is shown in labels and
// runtime ids. Floats that hold whole numbers print without a decimal part.
func ValueString(value any) string {
	switch v := UnwrapValue(value).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SubstituteOption replaces the {option} placeholder in a follow-up label
// with the selected parent value.
func SubstituteOption(label string, value any) string {
	return strings.ReplaceAll(label, "{option}", ValueString(value))
}
