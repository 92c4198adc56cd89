package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/anamnesportalen/anamnese-api/data"
	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/validation"
)

// MockTemplateParser for testing
type MockTemplateParser struct {
	templates  []entities.FormTemplate
	shouldFail bool
	calls      int
}

func (m *MockTemplateParser) ParseAllTemplates() ([]entities.FormTemplate, map[string]entities.FormTemplate, error) {
	m.calls++
	if m.shouldFail {
		return nil, nil, fmt.Errorf("mock parse failure")
	}

	templatesMap := make(map[string]entities.FormTemplate, len(m.templates))
	for _, t := range m.templates {
		templatesMap[t.ID] = t
	}
	return m.templates, templatesMap, nil
}

func testTemplates() []entities.FormTemplate {
	return []entities.FormTemplate{
		{
			ID:    "anamnese-standard",
			Title: "Synsundersøkelse",
			Sections: []entities.FormSection{
				{Title: "Helse", Questions: []entities.FormQuestion{{ID: "smoking", Type: entities.QuestionTypeRadio}}},
			},
		},
	}
}

func newTestScheduler(parser *MockTemplateParser) (*Scheduler, *data.TemplateContainer, *data.EntryStore) {
	container := data.NewTemplateContainer()
	entries := data.NewEntryStore()
	s := NewScheduler(container, entries, parser, validation.NewValidator(), 15*time.Minute)
	return s, container, entries
}

func TestReloadTemplatesPublishesSnapshot(t *testing.T) {
	parser := &MockTemplateParser{templates: testTemplates()}
	s, container, _ := newTestScheduler(parser)

	if err := s.reloadTemplates(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if got := container.GetTemplates(); len(got) != 1 {
		t.Fatalf("expected 1 published template, got %d", len(got))
	}
	if _, exists := container.GetTemplate("anamnese-standard"); !exists {
		t.Error("template lookup failed after reload")
	}
	if container.GetLastUpdated().IsZero() {
		t.Error("last updated not stamped by reload")
	}
}

func TestReloadTemplatesParserFailure(t *testing.T) {
	parser := &MockTemplateParser{shouldFail: true}
	s, container, _ := newTestScheduler(parser)

	if err := s.reloadTemplates(); err == nil {
		t.Fatal("expected error from failing parser")
	}

	// The previous (empty) snapshot must stay untouched.
	if got := container.GetTemplates(); len(got) != 0 {
		t.Errorf("failed reload should not publish templates, got %d", len(got))
	}
	if container.IsUpdating() {
		t.Error("update flag must be released after a failed reload")
	}
}

func TestReloadTemplatesSkipsWhenUpdateInProgress(t *testing.T) {
	parser := &MockTemplateParser{templates: testTemplates()}
	s, container, _ := newTestScheduler(parser)

	if !container.BeginUpdate() {
		t.Fatal("could not take the update flag")
	}
	defer container.EndUpdate()

	if err := s.reloadTemplates(); err != nil {
		t.Fatalf("concurrent reload should be a silent skip, got %v", err)
	}
	if parser.calls != 0 {
		t.Errorf("parser should not run while another update holds the flag, ran %d times", parser.calls)
	}
}

func TestStartFailsWithoutInitialLoad(t *testing.T) {
	parser := &MockTemplateParser{shouldFail: true}
	s, _, _ := newTestScheduler(parser)

	if err := s.Start(); err == nil {
		t.Fatal("Start must fail when the initial template load fails")
	}
}

func TestStartAndStop(t *testing.T) {
	parser := &MockTemplateParser{templates: testTemplates()}
	s, container, entries := newTestScheduler(parser)

	// Seed an expired entry so the sweep job has something to do if it runs.
	_ = entries.Create(entities.IntakeEntry{
		Token:     "tok-old",
		Status:    entities.EntryStatusPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if got := container.GetTemplates(); len(got) != 1 {
		t.Errorf("initial load did not publish templates, got %d", len(got))
	}
}

func TestStopEndsStalenessMonitor(t *testing.T) {
	parser := &MockTemplateParser{templates: testTemplates()}
	s, _, _ := newTestScheduler(parser)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	s.Stop()
	s.Stop() // idempotent

	// The monitor goroutine selects on this channel; a closed channel is its
	// signal to exit instead of ticking forever.
	select {
	case <-s.monitorStop:
	default:
		t.Error("Stop did not close the staleness monitor channel")
	}
}
