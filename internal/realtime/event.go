// Package realtime fans out row-level change events to subscribed
// sessions, filtered by owner. Every successful store mutation publishes
// one event; each connected session holds one subscription for its user.
package realtime

import "github.com/smartmark/smartmark/internal/domain"

// Kind is the closed set of change-event kinds. Anything a peer emits
// that does not parse into Created or Deleted maps to KindOther, which
// consumers treat as "resynchronize from the store".
type Kind int

const (
	KindCreated Kind = iota
	KindDeleted
	KindOther
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindDeleted:
		return "deleted"
	default:
		return "other"
	}
}

// ParseKind maps a wire name back to a Kind. Unknown names collapse to
// KindOther rather than erroring: the fallback arm is the contract.
func ParseKind(s string) Kind {
	switch s {
	case "created":
		return KindCreated
	case "deleted":
		return KindDeleted
	default:
		return KindOther
	}
}

// Event is a single row-level change on the bookmarks table.
// Bookmark carries the full record for KindCreated; ID alone identifies
// the row for KindDeleted. OwnerID scopes delivery.
type Event struct {
	Kind     Kind
	OwnerID  string
	ID       string
	Bookmark domain.Bookmark
}

// Publisher accepts change events for fan-out.
type Publisher interface {
	Publish(ev Event)
}

// Subscriber hands out per-owner subscriptions.
type Subscriber interface {
	Subscribe(ownerID string) *Subscription
}

// Broker is both sides of the event stream.
type Broker interface {
	Publisher
	Subscriber
}
