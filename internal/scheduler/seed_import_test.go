package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/logger"
)

type memStore struct {
	mu      sync.Mutex
	records []domain.Bookmark
	nextID  int
}

func (m *memStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Bookmark, 0, len(m.records))
	for _, b := range m.records {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) Insert(_ context.Context, ownerID, title, url string) (domain.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b := domain.Bookmark{
		ID:        string(rune('a' + m.nextID)),
		Title:     title,
		URL:       url,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	m.records = append(m.records, b)
	return b, nil
}

func (m *memStore) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.records {
		if b.ID == id && b.OwnerID == ownerID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func TestImportIsIdempotentByURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `
bookmarks:
  - title: Search
    url: google.com
  - title: Docs
    url: https://pkg.go.dev
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}

	st := &memStore{}
	imp := NewSeedImporter(path, st, "seed-owner", logger.New("error", false), time.Hour, nil)
	ctx := context.Background()

	if err := imp.Import(ctx); err != nil {
		t.Fatalf("first Import failed: %v", err)
	}
	if err := imp.Import(ctx); err != nil {
		t.Fatalf("second Import failed: %v", err)
	}

	list, _ := st.ListByOwner(ctx, "seed-owner")
	if len(list) != 2 {
		t.Errorf("owner has %d bookmarks after re-import, want 2", len(list))
	}
	for _, b := range list {
		if b.URL != "https://google.com" && b.URL != "https://pkg.go.dev" {
			t.Errorf("unexpected URL %q", b.URL)
		}
	}
}

func TestImportFailsOnMissingFile(t *testing.T) {
	st := &memStore{}
	imp := NewSeedImporter("/nonexistent/seed.yaml", st, "seed-owner", logger.New("error", false), time.Hour, nil)

	if err := imp.Import(context.Background()); err == nil {
		t.Error("Import should fail for a missing seed file")
	}
}
