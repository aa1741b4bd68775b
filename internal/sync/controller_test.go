package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartmark/smartmark/internal/cache"
	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/logger"
	"github.com/smartmark/smartmark/internal/realtime"
)

// fakeStore is an in-memory store with call counting and failure
// injection, publishing events like the real repository does.
type fakeStore struct {
	mu        sync.Mutex
	records   map[string][]domain.Bookmark
	hub       *realtime.Hub
	nextID    int
	listCalls int
	insCalls  int
	delCalls  int
	insertErr error
	deleteErr error
}

func newFakeStore(hub *realtime.Hub) *fakeStore {
	return &fakeStore{
		records: make(map[string][]domain.Bookmark),
		hub:     hub,
	}
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]domain.Bookmark, len(f.records[ownerID]))
	copy(out, f.records[ownerID])
	domain.SortBookmarks(out)
	return out, nil
}

func (f *fakeStore) Insert(_ context.Context, ownerID, title, url string) (domain.Bookmark, error) {
	f.mu.Lock()
	f.insCalls++
	if f.insertErr != nil {
		err := f.insertErr
		f.mu.Unlock()
		return domain.Bookmark{}, err
	}
	f.nextID++
	b := domain.Bookmark{
		ID:        fmt.Sprintf("id-%03d", f.nextID),
		Title:     title,
		URL:       url,
		OwnerID:   ownerID,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(f.nextID) * time.Minute),
	}
	f.records[ownerID] = append(f.records[ownerID], b)
	f.mu.Unlock()

	if f.hub != nil {
		f.hub.Publish(realtime.Event{Kind: realtime.KindCreated, OwnerID: ownerID, ID: b.ID, Bookmark: b})
	}
	return b, nil
}

func (f *fakeStore) Delete(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	f.delCalls++
	if f.deleteErr != nil {
		err := f.deleteErr
		f.mu.Unlock()
		return err
	}
	list := f.records[ownerID]
	for i, b := range list {
		if b.ID == id {
			f.records[ownerID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	if f.hub != nil {
		f.hub.Publish(realtime.Event{Kind: realtime.KindDeleted, OwnerID: ownerID, ID: id})
	}
	return nil
}

func testLogger() logger.Logger { return logger.New("error", false) }

func newController(t *testing.T, st *fakeStore, hub *realtime.Hub, onError ErrorFunc) (*Controller, *cache.Cache) {
	t.Helper()
	c := cache.New(nil)
	ctrl := New(st, hub, c, "user-1", testLogger(), onError)
	return ctrl, c
}

func TestAddConfirmedLandsAtFront(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	ctrl, c := newController(t, st, hub, nil)
	ctx := context.Background()

	if err := ctrl.Add(ctx, "First", "one.example.org"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := ctrl.Add(ctx, "Second", "two.example.org"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	all := c.All()
	if len(all) != 2 {
		t.Fatalf("cache has %d records, want 2", len(all))
	}
	if all[0].Title != "Second" {
		t.Errorf("front record = %q, want Second", all[0].Title)
	}
	if all[0].ID == "" {
		t.Error("confirmed record must carry the server-assigned id")
	}
}

func TestAddEmptyInputsAreNoOpWithoutStoreCall(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	ctrl, c := newController(t, st, hub, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		title string
		url   string
	}{
		{"empty title", "   ", "google.com"},
		{"empty url", "Search", ""},
		{"both empty", "", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ctrl.Add(ctx, tt.title, tt.url); err != nil {
				t.Fatalf("Add returned error: %v", err)
			}
		})
	}

	if st.insCalls != 0 {
		t.Errorf("store saw %d insert calls, want 0", st.insCalls)
	}
	if c.Len() != 0 {
		t.Errorf("cache has %d records, want 0", c.Len())
	}
}

func TestAddNormalizesBareURL(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	ctrl, c := newController(t, st, hub, nil)

	if err := ctrl.Add(context.Background(), "Search", "google.com"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	all := c.All()
	if len(all) != 1 {
		t.Fatalf("cache has %d records, want 1", len(all))
	}
	got := all[0]
	if got.URL != "https://google.com" {
		t.Errorf("stored URL = %q, want https://google.com", got.URL)
	}
	if got.Title != "Search" || got.OwnerID != "user-1" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestAddFailureLeavesCacheUntouchedAndSurfacesError(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	st.insertErr = errors.New("insert rejected")

	var failedOp string
	ctrl, c := newController(t, st, hub, func(op string, err error) { failedOp = op })

	if err := ctrl.Add(context.Background(), "Search", "google.com"); err == nil {
		t.Fatal("Add should propagate the store error")
	}

	if c.Len() != 0 {
		t.Errorf("cache has %d records after failed add, want 0", c.Len())
	}
	if failedOp != "add" {
		t.Errorf("onError op = %q, want add", failedOp)
	}
}

func TestDeleteIsOptimisticAndIdempotent(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	ctrl, c := newController(t, st, hub, nil)
	ctx := context.Background()

	if err := ctrl.Add(ctx, "Search", "google.com"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	id := c.All()[0].ID

	if err := ctrl.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("cache has %d records after delete, want 0", c.Len())
	}

	// Deleting the same id again leaves the same state.
	if err := ctrl.Delete(ctx, id); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("cache has %d records after repeated delete, want 0", c.Len())
	}
}

func TestDeleteFailureRollsBackToSnapshot(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)

	var failedOp string
	ctrl, c := newController(t, st, hub, func(op string, err error) { failedOp = op })
	ctx := context.Background()

	if err := ctrl.Add(ctx, "Keep", "keep.example.org"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := ctrl.Add(ctx, "Doomed", "doomed.example.org"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	before := c.All()

	st.deleteErr = errors.New("store unavailable")
	if err := ctrl.Delete(ctx, before[0].ID); err == nil {
		t.Fatal("Delete should propagate the store error")
	}

	after := c.All()
	if len(after) != len(before) {
		t.Fatalf("cache has %d records after rollback, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Errorf("rollback order mismatch at %d: %q vs %q", i, after[i].ID, before[i].ID)
		}
	}
	if failedOp != "delete" {
		t.Errorf("onError op = %q, want delete", failedOp)
	}
}

// runController starts Run in a goroutine and returns a stop func that
// cancels it and waits for exit.
func runController(ctrl *Controller) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRunLoadsExistingRecords(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	if _, err := st.Insert(context.Background(), "user-1", "Existing", "https://example.org"); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	ctrl, c := newController(t, st, hub, nil)
	stop := runController(ctrl)
	defer stop()

	waitFor(t, func() bool { return c.Len() == 1 })
}

func TestCreatedEventEchoDoesNotDuplicate(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	ctrl, c := newController(t, st, hub, nil)

	stop := runController(ctrl)
	defer stop()
	waitFor(t, func() bool { return hub.SubscriberCount("user-1") == 1 })

	// Local add inserts the confirmed record and the store's created
	// event echoes back through the subscription.
	if err := ctrl.Add(context.Background(), "Search", "google.com"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	waitFor(t, func() bool { return c.Len() == 1 })
	// Give the echo a moment to be (not) applied twice.
	time.Sleep(50 * time.Millisecond)
	if c.Len() != 1 {
		t.Errorf("cache has %d records after echo, want 1", c.Len())
	}
}

func TestDeletedEventForUnknownIDIsSilentNoOp(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	ctrl, c := newController(t, st, hub, nil)

	stop := runController(ctrl)
	defer stop()
	waitFor(t, func() bool { return hub.SubscriberCount("user-1") == 1 })

	hub.Publish(realtime.Event{Kind: realtime.KindDeleted, OwnerID: "user-1", ID: "never-existed"})

	time.Sleep(50 * time.Millisecond)
	if c.Len() != 0 {
		t.Errorf("cache has %d records, want 0", c.Len())
	}
}

func TestUnknownEventTriggersFullRefetch(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	ctrl, c := newController(t, st, hub, nil)

	stop := runController(ctrl)
	defer stop()
	waitFor(t, func() bool { return hub.SubscriberCount("user-1") == 1 })

	// A record appears behind the controller's back, then an event with
	// no incremental mapping arrives.
	st.mu.Lock()
	st.records["user-1"] = append(st.records["user-1"], domain.Bookmark{
		ID: "out-of-band", Title: "Surprise", OwnerID: "user-1",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	st.mu.Unlock()

	hub.Publish(realtime.Event{Kind: realtime.KindOther, OwnerID: "user-1"})

	waitFor(t, func() bool { return c.Contains("out-of-band") })
}

func TestRunReleasesSubscriptionOnStop(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)
	ctrl, _ := newController(t, st, hub, nil)

	stop := runController(ctrl)
	waitFor(t, func() bool { return hub.SubscriberCount("user-1") == 1 })

	stop()

	waitFor(t, func() bool { return hub.SubscriberCount("user-1") == 0 })
}

func TestEventsFromOneSessionReachAnother(t *testing.T) {
	hub := realtime.NewHub(testLogger())
	st := newFakeStore(hub)

	ctrlA, cacheA := newController(t, st, hub, nil)
	cacheB := cache.New(nil)
	ctrlB := New(st, hub, cacheB, "user-1", testLogger(), nil)

	stopA := runController(ctrlA)
	defer stopA()
	stopB := runController(ctrlB)
	defer stopB()
	waitFor(t, func() bool { return hub.SubscriberCount("user-1") == 2 })

	if err := ctrlA.Add(context.Background(), "Shared", "shared.example.org"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	waitFor(t, func() bool { return cacheA.Len() == 1 && cacheB.Len() == 1 })
}
