// Package cache holds the per-session in-memory view of one user's
// bookmarks. It mirrors the subset of the store matching the session's
// owner and is the only component with real client-side state logic: the
// store stays authoritative, the cache just tracks it.
package cache

import (
	"sync"

	"github.com/smartmark/smartmark/internal/domain"
)

// Cache is an ordered sequence of bookmarks keyed by ID. Every effective
// mutation runs atomically and triggers exactly one onChange callback
// with a copy of the new contents, newest first. Callbacks run under the
// cache lock so concurrent mutations deliver their snapshots in mutation
// order; onChange must not call back into the cache.
type Cache struct {
	mu       sync.Mutex
	records  []domain.Bookmark
	present  map[string]struct{}
	onChange func([]domain.Bookmark)
}

// New creates an empty cache. onChange may be nil when no dependent view
// needs re-rendering (tests, scripts).
func New(onChange func([]domain.Bookmark)) *Cache {
	return &Cache{
		present:  make(map[string]struct{}),
		onChange: onChange,
	}
}

// ReplaceAll swaps the full contents, used after a bulk fetch. Records
// are re-sorted by the display ordering invariant.
func (c *Cache) ReplaceAll(records []domain.Bookmark) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make([]domain.Bookmark, len(records))
	copy(c.records, records)
	domain.SortBookmarks(c.records)
	c.present = make(map[string]struct{}, len(records))
	for _, b := range c.records {
		c.present[b.ID] = struct{}{}
	}
	c.notify(c.copyLocked())
}

// InsertFront adds a freshly created record. Idempotent per ID, so the
// echo of a local optimistic insert arriving over the event stream does
// not produce a duplicate. Confirmed records are newest and land at the
// front; out-of-order delivery is placed by CreatedAt to keep the
// ordering invariant.
func (c *Cache) InsertFront(b domain.Bookmark) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.present[b.ID]; ok {
		return
	}
	pos := 0
	for pos < len(c.records) && domain.Less(c.records[pos], b) {
		pos++
	}
	c.records = append(c.records, domain.Bookmark{})
	copy(c.records[pos+1:], c.records[pos:])
	c.records[pos] = b
	c.present[b.ID] = struct{}{}
	c.notify(c.copyLocked())
}

// RemoveByID deletes the matching entry. Removing an absent ID is a
// silent no-op, which absorbs duplicate or out-of-order delete events.
func (c *Cache) RemoveByID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.present[id]; !ok {
		return
	}
	delete(c.present, id)
	for i, b := range c.records {
		if b.ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			break
		}
	}
	c.notify(c.copyLocked())
}

// Snapshot returns a copy of the current contents, usable later as a
// rollback point for Restore.
func (c *Cache) Snapshot() []domain.Bookmark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Restore replaces the full contents with a previously captured
// snapshot. This is the rollback path for failed optimistic mutations.
func (c *Cache) Restore(snapshot []domain.Bookmark) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = make([]domain.Bookmark, len(snapshot))
	copy(c.records, snapshot)
	c.present = make(map[string]struct{}, len(snapshot))
	for _, b := range c.records {
		c.present[b.ID] = struct{}{}
	}
	c.notify(c.copyLocked())
}

// All returns a copy of the current contents in display order.
func (c *Cache) All() []domain.Bookmark {
	return c.Snapshot()
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Contains reports whether a record with the given ID is cached.
func (c *Cache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.present[id]
	return ok
}

func (c *Cache) copyLocked() []domain.Bookmark {
	out := make([]domain.Bookmark, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Cache) notify(records []domain.Bookmark) {
	if c.onChange != nil {
		c.onChange(records)
	}
}
