package templateparser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/anamnesportalen/anamnese-api/formengine/entities"
	"github.com/anamnesportalen/anamnese-api/interfaces"
	"github.com/anamnesportalen/anamnese-api/logging"
)

// Compile-time check to ensure Parser implements TemplateParser interface
var _ interfaces.TemplateParser = (*Parser)(nil)

// Parser loads templates from a directory on disk.
type Parser struct {
	dir string
}

// NewParser creates a parser rooted at the given template directory.
func NewParser(dir string) *Parser {
	return &Parser{dir: dir}
}

// ParseAllTemplates implements the TemplateParser interface.
func (p *Parser) ParseAllTemplates() ([]entities.FormTemplate, map[string]entities.FormTemplate, error) {
	return ParseAllTemplates(p.dir)
}

// validateTemplate rejects templates that cannot be served at all. Softer
// integrity problems (dangling follow-up refs, unknown condition targets)
// are reported by the validation package and degrade at render time instead.
func validateTemplate(t *entities.FormTemplate) error {
	if t.ID == "" {
		return fmt.Errorf("missing template id")
	}
	if t.Title == "" {
		return fmt.Errorf("missing title for template %s", t.ID)
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("template %s has no sections", t.ID)
	}

	seen := make(map[string]bool)
	for si := range t.Sections {
		for qi := range t.Sections[si].Questions {
			q := &t.Sections[si].Questions[qi]
			if q.ID == "" {
				return fmt.Errorf("template %s: question without id in section %q", t.ID, t.Sections[si].Title)
			}
			if seen[q.ID] {
				return fmt.Errorf("template %s: duplicate question id %q", t.ID, q.ID)
			}
			seen[q.ID] = true
		}
	}

	return nil
}

// ParseAllTemplates reads every template JSON file under dir. A file that
// fails to parse or validate is skipped with a warning so one broken export
// cannot take down the whole reload.
func ParseAllTemplates(dir string) ([]entities.FormTemplate, map[string]entities.FormTemplate, error) {
	files, err := listTemplateFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	templates := make([]entities.FormTemplate, 0, len(files))
	templatesMap := make(map[string]entities.FormTemplate, len(files))

	for _, path := range files {
		raw, err := readTemplateFile(path)
		if err != nil {
			logging.Warn("Skipping unreadable template file", "file", path, "error", err)
			continue
		}

		var template entities.FormTemplate
		if err := json.Unmarshal(raw, &template); err != nil {
			logging.Warn("Skipping malformed template file", "file", path, "error", err)
			continue
		}

		if template.ID == "" {
			// Fall back to the file name so hand-copied exports without an
			// id field still publish.
			template.ID = strings.TrimSuffix(filepath.Base(path), ".json")
		}

		if err := validateTemplate(&template); err != nil {
			logging.Warn("Skipping invalid template", "file", path, "error", err)
			continue
		}

		if _, exists := templatesMap[template.ID]; exists {
			logging.Warn("Skipping template with duplicate id", "file", path, "template_id", template.ID)
			continue
		}

		templates = append(templates, template)
		templatesMap[template.ID] = template
	}

	if len(templates) == 0 {
		return nil, nil, fmt.Errorf("no usable templates found in %s", dir)
	}

	logging.Info("Templates parsed successfully", "count", len(templates))
	return templates, templatesMap, nil
}
