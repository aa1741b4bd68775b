package domain

import (
	"sort"
	"strings"
	"time"
)

// Bookmark is a single saved link belonging to one user.
//
// ID and CreatedAt are assigned by the store at insert time, never by the
// caller. OwnerID is set once at creation. Bookmarks are never mutated in
// place; the only lifecycle transitions are create and delete.
type Bookmark struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	OwnerID   string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeURL prepends https:// when the input carries no recognized
// scheme. "google.com" becomes "https://google.com"; URLs already
// starting with http:// or https:// pass through unchanged.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// ValidateInput trims both fields and rejects empty ones. Returns the
// trimmed title and the normalized URL.
func ValidateInput(title, url string) (string, string, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" {
		return "", "", ErrEmptyTitle
	}
	if url == "" {
		return "", "", ErrEmptyURL
	}
	return title, NormalizeURL(url), nil
}

// Less reports whether a sorts before b in display order:
// CreatedAt descending, ties broken by ID (descending, for determinism).
func Less(a, b Bookmark) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortBookmarks orders records in place by the display ordering invariant.
func SortBookmarks(list []Bookmark) {
	sort.SliceStable(list, func(i, j int) bool {
		return Less(list[i], list[j])
	})
}
