package data

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/interfaces"
	"github.com/anamnesportalen/anamnese-api/logging"
)

// Compile-time check to ensure EntryStore implements the store interface
var _ interfaces.EntryStore = (*EntryStore)(nil)

// EntryStore keeps intake entries in memory behind a mutex, keyed by access
// token with a secondary index by submission id. Draft saves and submits for
// the same entry serialize on the lock, so a late auto-save cannot overwrite
// a submission: submission wins and the draft save is rejected.
type EntryStore struct {
	mu           sync.RWMutex
	byToken      map[string]*entities.IntakeEntry
	bySubmission map[string]*entities.IntakeEntry
}

// NewEntryStore creates an empty entry store.
func NewEntryStore() *EntryStore {
	return &EntryStore{
		byToken:      make(map[string]*entities.IntakeEntry),
		bySubmission: make(map[string]*entities.IntakeEntry),
	}
}

// Create registers a freshly issued entry. Tokens are uuids, so a collision
// points at an upstream bug; it is rejected rather than overwritten.
func (s *EntryStore) Create(entry entities.IntakeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byToken[entry.Token]; exists {
		return fmt.Errorf("token already registered")
	}

	stored := entry
	s.byToken[entry.Token] = &stored
	return nil
}

// GetByToken returns a copy of the entry for the given token.
func (s *EntryStore) GetByToken(token string) (entities.IntakeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.byToken[token]
	if !exists {
		return entities.IntakeEntry{}, interfaces.ErrEntryNotFound
	}
	return *entry, nil
}

// SaveDraft stores the in-progress answer snapshot for the entry. The
// failure taxonomy maps directly to the draft endpoint outcomes: unknown
// token, expired token, already submitted.
func (s *EntryStore) SaveDraft(token string, draft entities.AnswerSet, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.byToken[token]
	if !exists {
		return interfaces.ErrEntryNotFound
	}
	if entry.Status == entities.EntryStatusSubmitted {
		return interfaces.ErrAlreadySubmitted
	}
	if entry.Expired(now) {
		return interfaces.ErrTokenExpired
	}

	// Store our own snapshot so later caller-side mutation can't reach in.
	copied := make(entities.AnswerSet, len(draft))
	for k, v := range draft {
		copied[k] = v
	}
	entry.Draft = copied
	entry.DraftSavedAt = now

	return nil
}

// Submit finalizes the entry with the formatted submission and marks it
// submitted. Subsequent drafts and submits are rejected.
func (s *EntryStore) Submit(token string, submission entities.StoredSubmission, now time.Time) (entities.IntakeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.byToken[token]
	if !exists {
		return entities.IntakeEntry{}, interfaces.ErrEntryNotFound
	}
	if entry.Status == entities.EntryStatusSubmitted {
		return entities.IntakeEntry{}, interfaces.ErrAlreadySubmitted
	}
	if entry.Expired(now) {
		return entities.IntakeEntry{}, interfaces.ErrTokenExpired
	}

	entry.Status = entities.EntryStatusSubmitted
	entry.Submission = &submission
	entry.SubmissionID = uuid.NewString()
	s.bySubmission[entry.SubmissionID] = entry

	return *entry, nil
}

// ListSubmissions returns the submitted entries for a store, newest first.
// An empty storeID lists submissions across all stores.
func (s *EntryStore) ListSubmissions(storeID string) []entities.IntakeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.IntakeEntry
	for _, entry := range s.bySubmission {
		if storeID != "" && entry.StoreID != storeID {
			continue
		}
		out = append(out, *entry)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Submission.Metadata.SubmittedAt.After(out[j].Submission.Metadata.SubmittedAt)
	})

	return out
}

// GetSubmission returns the submitted entry with the given submission id.
func (s *EntryStore) GetSubmission(id string) (entities.IntakeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.bySubmission[id]
	if !exists {
		return entities.IntakeEntry{}, interfaces.ErrEntryNotFound
	}
	return *entry, nil
}

// SweepExpired drops pending entries whose token expired, returning the
// number removed. Submitted entries are kept for the optician review flow.
func (s *EntryStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for token, entry := range s.byToken {
		if entry.Status == entities.EntryStatusPending && entry.Expired(now) {
			delete(s.byToken, token)
			removed++
		}
	}

	if removed > 0 {
		logging.Info("Swept expired intake entries", "count", removed)
	}

	return removed
}

// Counts returns the number of pending and submitted entries.
func (s *EntryStore) Counts() (pending int, submitted int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.byToken {
		if entry.Status == entities.EntryStatusSubmitted {
			submitted++
		} else {
			pending++
		}
	}
	return pending, submitted
}
