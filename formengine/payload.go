package formengine

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
)

// DecodeStoredSubmission parses a stored submission payload. Payloads written
// by older clients double-wrapped the formatted block as
// {"formattedAnswers": {"formattedAnswers": {...}}}; both the direct and the
// double-nested shape decode to the same StoredSubmission.
func DecodeStoredSubmission(raw []byte) (entities.StoredSubmission, error) {
	var sub entities.StoredSubmission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return entities.StoredSubmission{}, fmt.Errorf("failed to decode stored submission: %w", err)
	}

	if sub.FormattedAnswers.FormTitle != "" || len(sub.FormattedAnswers.Sections) > 0 {
		return sub, nil
	}

	// Fall back to the legacy double-nested wrapper.
	var nested struct {
		FormattedAnswers struct {
			FormattedAnswers entities.FormattedAnswers `json:"formattedAnswers"`
		} `json:"formattedAnswers"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		inner := nested.FormattedAnswers.FormattedAnswers
		if inner.FormTitle != "" || len(inner.Sections) > 0 {
			sub.FormattedAnswers = inner
		}
	}

	return sub, nil
}

// EncodeStoredSubmission serializes a submission in the current (directly
// nested) shape.
func EncodeStoredSubmission(sub entities.StoredSubmission) ([]byte, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}
	return data, nil
}
