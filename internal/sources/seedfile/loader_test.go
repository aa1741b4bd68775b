package seedfile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
	return path
}

func TestLoadAndMap(t *testing.T) {
	path := writeSeed(t, `
bookmarks:
  - title: Search
    url: google.com
  - title: Docs
    url: https://pkg.go.dev
`)

	seed, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entries, err := Map(seed)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("mapped %d entries, want 2", len(entries))
	}
	if entries[0].URL != "https://google.com" {
		t.Errorf("URL = %q, want normalized https://google.com", entries[0].URL)
	}
	if entries[1].URL != "https://pkg.go.dev" {
		t.Errorf("URL = %q, want unchanged", entries[1].URL)
	}
}

func TestMapSkipsInvalidEntries(t *testing.T) {
	path := writeSeed(t, `
bookmarks:
  - title: ""
    url: google.com
  - title: NoURL
    url: ""
  - title: Valid
    url: example.org
`)

	seed, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entries, err := Map(seed)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Valid" {
		t.Errorf("entries = %+v, want only the valid one", entries)
	}
}

func TestMapAllInvalidIsError(t *testing.T) {
	seed := &Seed{Bookmarks: []Entry{{Title: "", URL: ""}}}
	if _, err := Map(seed); err == nil {
		t.Error("Map should fail when no valid entries remain")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := NewLoader("/nonexistent/seed.yaml").Load(); err == nil {
		t.Error("Load should fail for a missing file")
	}
}
