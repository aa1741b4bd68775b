// Package seedfile loads an optional YAML file of bookmarks imported for
// a fixed owner at startup, so a fresh deployment starts with content.
package seedfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/smartmark/smartmark/internal/domain"
)

// Loader reads and parses the seed YAML file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the seed file.
func (l *Loader) Load() (*Seed, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	return &seed, nil
}

// Map validates and normalizes the seed entries. Entries with an empty
// title or URL are skipped; URLs get the same scheme normalization as
// user input.
func Map(seed *Seed) ([]Entry, error) {
	entries := make([]Entry, 0, len(seed.Bookmarks))
	for _, e := range seed.Bookmarks {
		title, url, err := domain.ValidateInput(e.Title, e.URL)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Title: title, URL: url})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in seed file")
	}
	return entries, nil
}
