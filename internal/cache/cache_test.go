package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartmark/smartmark/internal/domain"
)

func mark(id string, createdAt time.Time) domain.Bookmark {
	return domain.Bookmark{
		ID:        id,
		Title:     "title-" + id,
		URL:       "https://example.org/" + id,
		OwnerID:   "user-1",
		CreatedAt: createdAt,
	}
}

func ids(records []domain.Bookmark) []string {
	out := make([]string, len(records))
	for i, b := range records {
		out[i] = b.ID
	}
	return out
}

func TestReplaceAllSortsNewestFirst(t *testing.T) {
	c := New(nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c.ReplaceAll([]domain.Bookmark{
		mark("old", base),
		mark("new", base.Add(2*time.Hour)),
		mark("mid", base.Add(time.Hour)),
	})

	got := ids(c.All())
	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestInsertFrontIsIdempotentByID(t *testing.T) {
	c := New(nil)
	b := mark("a", time.Now())

	c.InsertFront(b)
	c.InsertFront(b)

	if c.Len() != 1 {
		t.Errorf("Len() = %d after duplicate insert, want 1", c.Len())
	}
}

func TestInsertFrontPlacesNewestAtIndexZero(t *testing.T) {
	c := New(nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c.InsertFront(mark("first", base))
	c.InsertFront(mark("second", base.Add(time.Minute)))

	got := ids(c.All())
	if got[0] != "second" || got[1] != "first" {
		t.Errorf("order = %v, want [second first]", got)
	}
}

func TestInsertFrontKeepsOrderingForLateArrivals(t *testing.T) {
	c := New(nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// An older record delivered after a newer one must not end up first.
	c.InsertFront(mark("newer", base.Add(time.Hour)))
	c.InsertFront(mark("older", base))

	got := ids(c.All())
	if got[0] != "newer" || got[1] != "older" {
		t.Errorf("order = %v, want [newer older]", got)
	}
}

func TestRemoveByIDAbsentIsNoOp(t *testing.T) {
	c := New(nil)
	c.InsertFront(mark("a", time.Now()))

	c.RemoveByID("missing")

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestRemoveByIDTwiceEqualsOnce(t *testing.T) {
	c := New(nil)
	c.InsertFront(mark("a", time.Now()))
	c.InsertFront(mark("b", time.Now().Add(time.Second)))

	c.RemoveByID("a")
	after := ids(c.All())
	c.RemoveByID("a")

	got := ids(c.All())
	if len(got) != len(after) || got[0] != after[0] {
		t.Errorf("second remove changed state: %v vs %v", got, after)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	c := New(nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.ReplaceAll([]domain.Bookmark{
		mark("a", base),
		mark("b", base.Add(time.Hour)),
	})

	snap := c.Snapshot()
	c.RemoveByID("b")
	if c.Len() != 1 {
		t.Fatalf("Len() = %d after remove, want 1", c.Len())
	}

	c.Restore(snap)

	got := ids(c.All())
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("restored order = %v, want [b a]", got)
	}
}

func TestSnapshotIsIndependentOfLaterMutations(t *testing.T) {
	c := New(nil)
	c.InsertFront(mark("a", time.Now()))

	snap := c.Snapshot()
	c.RemoveByID("a")

	if len(snap) != 1 {
		t.Errorf("snapshot mutated by later removal: %v", snap)
	}
}

func TestOnChangeFiresOncePerEffectiveMutation(t *testing.T) {
	var calls int
	c := New(func([]domain.Bookmark) { calls++ })

	c.InsertFront(mark("a", time.Now()))
	c.InsertFront(mark("a", time.Now())) // duplicate, no-op
	c.RemoveByID("missing")              // no-op
	c.RemoveByID("a")

	if calls != 2 {
		t.Errorf("onChange fired %d times, want 2", calls)
	}
}

// Mutations from concurrent goroutines must deliver their snapshots in
// mutation order: the last callback a dependent view receives always
// reflects the final cache contents, never an earlier state.
func TestOnChangeLastSnapshotMatchesFinalState(t *testing.T) {
	var mu sync.Mutex
	var last []domain.Bookmark
	c := New(func(records []domain.Bookmark) {
		// Simulated slow consumer; under out-of-order delivery this
		// widens the window for a stale snapshot to arrive last.
		time.Sleep(time.Millisecond)
		mu.Lock()
		last = records
		mu.Unlock()
	})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.InsertFront(mark(fmt.Sprintf("id-%d", i), base.Add(time.Duration(i)*time.Minute)))
		}(i)
	}
	wg.Wait()

	mu.Lock()
	got := ids(last)
	mu.Unlock()
	want := ids(c.All())
	if len(got) != len(want) {
		t.Fatalf("last snapshot has %d records, final state has %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("last delivered snapshot %v != final cache state %v", got, want)
		}
	}
}
