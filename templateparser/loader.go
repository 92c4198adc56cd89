// Package templateparser loads form-template definitions from the template
// directory and turns them into publishable snapshots for the template
// container.
package templateparser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/anamnesportalen/anamnese-api/logging"
)

// readTemplateFile reads one template JSON file. Some store admins still
// export templates from the legacy desktop tool, which writes ISO-8859-1
// (the Scandinavian letters æøå/åäö land outside ASCII), so non-UTF-8 input
// is decoded from ISO-8859-1 before parsing.
func readTemplateFile(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", cleanPath, err)
	}

	if utf8.Valid(raw) {
		return raw, nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s as ISO-8859-1: %w", cleanPath, err)
	}

	logging.Debug(fmt.Sprintf("%s decoded from ISO-8859-1", filepath.Base(cleanPath)))
	return bytes.TrimSpace(decoded), nil
}

// listTemplateFiles returns the .json files in dir, in lexical order so
// reloads publish templates deterministically.
func listTemplateFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	return files, nil
}
