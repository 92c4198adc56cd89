// Package tokens issues the opaque access tokens that gate the patient
// intake flow. A token binds one customer to one form template at one store
// for a limited time; there is no session model behind it.
package tokens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/interfaces"
	"github.com/anamnesportalen/anamnese-api/logging"
)

var (
	ErrUnknownTemplate     = errors.New("unknown form template")
	ErrTemplateNotForStore = errors.New("template not published for store")
)

// Issuer creates intake entries with fresh access tokens.
type Issuer struct {
	templates interfaces.TemplateStore
	entries   interfaces.EntryStore
	ttl       time.Duration
}

// NewIssuer creates a token issuer. ttl is how long issued tokens stay
// usable before the expiry sweep reclaims the entry.
func NewIssuer(templates interfaces.TemplateStore, entries interfaces.EntryStore, ttl time.Duration) *Issuer {
	return &Issuer{templates: templates, entries: entries, ttl: ttl}
}

// Issue registers a pending intake entry for the customer and returns it
// with a fresh token. The template must exist in the current snapshot and
// be published for the requesting store.
func (i *Issuer) Issue(storeID, templateID string, customer entities.Customer, now time.Time) (entities.IntakeEntry, error) {
	if strings.TrimSpace(storeID) == "" {
		return entities.IntakeEntry{}, fmt.Errorf("missing store id")
	}

	template, exists := i.templates.GetTemplatesMap()[templateID]
	if !exists {
		return entities.IntakeEntry{}, ErrUnknownTemplate
	}
	if !visibleToStore(&template, storeID) {
		return entities.IntakeEntry{}, ErrTemplateNotForStore
	}

	entry := entities.IntakeEntry{
		ID:         uuid.NewString(),
		Token:      uuid.NewString(),
		TemplateID: templateID,
		StoreID:    storeID,
		Customer:   customer,
		Status:     entities.EntryStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(i.ttl),
	}

	if err := i.entries.Create(entry); err != nil {
		return entities.IntakeEntry{}, fmt.Errorf("registering intake entry: %w", err)
	}

	logging.Info("Issued intake token",
		"store", storeID,
		"template", templateID,
		"expiresAt", entry.ExpiresAt)

	return entry, nil
}

// Templates without a storeIDs list are published to every store.
func visibleToStore(t *entities.FormTemplate, storeID string) bool {
	if len(t.StoreIDs) == 0 {
		return true
	}
	for _, id := range t.StoreIDs {
		if id == storeID {
			return true
		}
	}
	return false
}
