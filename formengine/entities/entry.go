package entities

import "time"

// Entry lifecycle states. Expiry is derived from ExpiresAt rather than
// stored, so a pending entry simply stops accepting drafts once past it.
const (
	EntryStatusPending   = "pending"
	EntryStatusSubmitted = "submitted"
)

// Customer carries the booking metadata the token was issued for.
type Customer struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	BookingRef string `json:"bookingRef,omitempty"`
}

// IntakeEntry is one patient's token-gated intake session: the magic-link
// token, the template and store it is bound to, the in-progress draft and,
// after submit, the stored submission.
type IntakeEntry struct {
	ID         string    `json:"id"`
	Token      string    `json:"token"`
	TemplateID string    `json:"templateId"`
	StoreID    string    `json:"storeId"`
	Customer   Customer  `json:"customer"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`

	Draft        AnswerSet `json:"draft,omitempty"`
	DraftSavedAt time.Time `json:"draftSavedAt,omitempty"`

	SubmissionID string            `json:"submissionId,omitempty"`
	Submission   *StoredSubmission `json:"submission,omitempty"`
}

// Expired reports whether the entry's token is past its expiry at now.
func (e *IntakeEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
