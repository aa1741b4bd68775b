package realtime

import (
	"sync"

	"github.com/smartmark/smartmark/internal/logger"
)

// subscriptionBuffer bounds how far a subscriber may lag before it is
// force-dropped. Dropped subscribers see their channel close and must
// resynchronize by reconnecting.
const subscriptionBuffer = 16

// Subscription is one owner-filtered view of the event stream. C closes
// when the subscription ends, either via Close or a force-drop.
type Subscription struct {
	C <-chan Event

	ch    chan Event
	owner string
	hub   *Hub
	once  sync.Once
}

// Close detaches the subscription and closes C. Idempotent; safe to call
// from any goroutine and guaranteed to release the hub slot.
func (s *Subscription) Close() {
	s.hub.detach(s)
}

// Hub is the in-process event broker. Publish delivers to every live
// subscription whose owner matches the event; slow subscribers are
// dropped rather than blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
	log  logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
		log:  log,
	}
}

// Subscribe opens a new subscription filtered to ownerID.
func (h *Hub) Subscribe(ownerID string) *Subscription {
	s := &Subscription{
		ch:    make(chan Event, subscriptionBuffer),
		owner: ownerID,
		hub:   h,
	}
	s.C = s.ch

	h.mu.Lock()
	set, ok := h.subs[ownerID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[ownerID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("subscription opened",
		logger.String("owner", ownerID))
	return s
}

// Publish delivers ev to all subscriptions for ev.OwnerID. Non-blocking:
// a subscriber with a full buffer is detached and its channel closed.
func (h *Hub) Publish(ev Event) {
	var dropped []*Subscription

	h.mu.Lock()
	for s := range h.subs[ev.OwnerID] {
		select {
		case s.ch <- ev:
		default:
			dropped = append(dropped, s)
		}
	}
	for _, s := range dropped {
		h.removeLocked(s)
	}
	h.mu.Unlock()

	for _, s := range dropped {
		s.once.Do(func() { close(s.ch) })
		h.log.Warn("dropped slow event subscriber",
			logger.String("owner", s.owner))
	}
}

// SubscriberCount returns the number of live subscriptions for an owner.
func (h *Hub) SubscriberCount(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}

// Close detaches every subscription. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Subscription
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.subs = make(map[string]map[*Subscription]struct{})
	h.mu.Unlock()

	for _, s := range all {
		s.once.Do(func() { close(s.ch) })
	}
}

func (h *Hub) detach(s *Subscription) {
	h.mu.Lock()
	h.removeLocked(s)
	h.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// removeLocked unregisters s; the caller holds h.mu. Channel close
// happens outside the lock but always after removal, so no publisher can
// send on a closed channel.
func (h *Hub) removeLocked(s *Subscription) {
	if set, ok := h.subs[s.owner]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.owner)
		}
	}
}
