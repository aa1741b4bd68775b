// Package sync reconciles a session's local cache with the bookmark
// store: one bulk fetch at startup, then incremental change events, plus
// locally issued mutations. Adds are confirmed-then-inserted (the id is
// unknown before the store assigns it); deletes are optimistic with a
// snapshot rollback on failure.
package sync

import (
	"context"
	"strings"

	"github.com/smartmark/smartmark/internal/cache"
	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/logger"
	"github.com/smartmark/smartmark/internal/realtime"
	"github.com/smartmark/smartmark/internal/store"
)

// ErrorFunc surfaces a failed mutation to the owning view. op is "add"
// or "delete". Called after local state has already been settled
// (nothing applied for add, rollback done for delete).
type ErrorFunc func(op string, err error)

// Controller drives one user's sync session. It is bound to a single
// owner for its whole lifetime; switching users means stopping this
// controller (which closes its subscription) and starting a new one.
type Controller struct {
	store   store.Store
	events  realtime.Subscriber
	cache   *cache.Cache
	ownerID string
	log     logger.Logger
	onError ErrorFunc
}

func New(st store.Store, events realtime.Subscriber, c *cache.Cache, ownerID string, log logger.Logger, onError ErrorFunc) *Controller {
	return &Controller{
		store:   st,
		events:  events,
		cache:   c,
		ownerID: ownerID,
		log:     log,
		onError: onError,
	}
}

// Run executes the startup protocol and then pumps change events until
// ctx is canceled. The subscription is opened exactly once and released
// on every exit path, including a failed initial fetch.
func (c *Controller) Run(ctx context.Context) {
	if err := c.refetch(ctx); err != nil {
		// Cache stays empty; the user sees nothing rather than stale
		// data, and the event stream below still keeps us converging.
		c.log.Error("initial bookmark fetch failed",
			logger.String("owner", c.ownerID),
			logger.Error(err))
	}

	sub := c.events.Subscribe(c.ownerID)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				c.log.Warn("change event stream closed",
					logger.String("owner", c.ownerID))
				return
			}
			c.handleEvent(ctx, ev)
		}
	}
}

// handleEvent applies one change event. Events are handled in delivery
// order, one at a time; the controller never reorders them.
func (c *Controller) handleEvent(ctx context.Context, ev realtime.Event) {
	switch ev.Kind {
	case realtime.KindCreated:
		// May be the echo of our own insert; InsertFront dedupes by id.
		c.cache.InsertFront(ev.Bookmark)
	case realtime.KindDeleted:
		c.cache.RemoveByID(ev.ID)
	default:
		// No incremental merge exists for arbitrary payload shapes;
		// the store wins, so refetch everything.
		c.log.Debug("unknown change event, resynchronizing",
			logger.String("owner", c.ownerID))
		if err := c.refetch(ctx); err != nil {
			c.log.Error("resync fetch failed",
				logger.String("owner", c.ownerID),
				logger.Error(err))
		}
	}
}

func (c *Controller) refetch(ctx context.Context) error {
	records, err := c.store.ListByOwner(ctx, c.ownerID)
	if err != nil {
		return err
	}
	c.cache.ReplaceAll(records)
	return nil
}

// Add creates a bookmark. Empty trimmed inputs are rejected without a
// store call. The record only appears in the cache once the store
// confirms it, since the id is unknown beforehand; no optimistic insert.
func (c *Controller) Add(ctx context.Context, title, url string) error {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" || url == "" {
		return nil
	}

	confirmed, err := c.store.Insert(ctx, c.ownerID, title, domain.NormalizeURL(url))
	if err != nil {
		c.fail("add", err)
		return err
	}

	c.cache.InsertFront(confirmed)
	return nil
}

// Delete removes a bookmark optimistically: the cache entry disappears
// before the store confirms. On failure the snapshot captured
// immediately before the removal is restored.
//
// Snapshots are independent per call: a later delete's snapshot already
// reflects an earlier optimistic removal, so rollbacks compose when
// confirmations arrive in order. Two failures arriving out of order can
// still interleave badly; accepted, not remedied.
func (c *Controller) Delete(ctx context.Context, id string) error {
	snapshot := c.cache.Snapshot()
	c.cache.RemoveByID(id)

	if err := c.store.Delete(ctx, c.ownerID, id); err != nil {
		c.cache.Restore(snapshot)
		c.fail("delete", err)
		return err
	}
	return nil
}

func (c *Controller) fail(op string, err error) {
	c.log.Error("bookmark mutation failed",
		logger.String("op", op),
		logger.String("owner", c.ownerID),
		logger.Error(err))
	if c.onError != nil {
		c.onError(op, err)
	}
}
