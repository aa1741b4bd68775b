package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/logger"
)

// eventsChannel is the Redis pub/sub channel carrying change events
// between instances.
const eventsChannel = "smartmark:events"

// wireEvent is the cross-instance JSON encoding of an Event. Instance
// tags let a node skip the echo of its own publishes; the kind travels
// as a string so an unknown value from a newer peer degrades to "other".
type wireEvent struct {
	Instance string           `json:"instance"`
	Kind     string           `json:"kind"`
	OwnerID  string           `json:"owner_id"`
	ID       string           `json:"id,omitempty"`
	Bookmark *domain.Bookmark `json:"bookmark,omitempty"`
}

// Bridge replicates hub events across instances via Redis pub/sub.
// Local publishes fan out in-process first, then to Redis; events
// arriving from peers are re-injected into the local hub.
type Bridge struct {
	hub        *Hub
	rdb        *redis.Client
	instanceID string
	log        logger.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewBridge(hub *Hub, rdb *redis.Client, log logger.Logger) *Bridge {
	return &Bridge{
		hub:        hub,
		rdb:        rdb,
		instanceID: uuid.NewString(),
		log:        log,
		done:       make(chan struct{}),
	}
}

// Subscribe delegates to the local hub; remote events reach local
// subscribers through the relay loop.
func (b *Bridge) Subscribe(ownerID string) *Subscription {
	return b.hub.Subscribe(ownerID)
}

// Publish delivers locally and relays to peers. Redis publish failures
// are logged and dropped: remote sessions resynchronize on their next
// full fetch, local consistency is unaffected.
func (b *Bridge) Publish(ev Event) {
	b.hub.Publish(ev)

	we := wireEvent{
		Instance: b.instanceID,
		Kind:     ev.Kind.String(),
		OwnerID:  ev.OwnerID,
		ID:       ev.ID,
	}
	if ev.Kind == KindCreated {
		bm := ev.Bookmark
		we.Bookmark = &bm
	}

	payload, err := json.Marshal(we)
	if err != nil {
		b.log.Error("failed to marshal change event", logger.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		b.log.Warn("failed to relay change event to redis", logger.Error(err))
	}
}

// Start opens the Redis subscription and runs the relay loop until Stop.
func (b *Bridge) Start(ctx context.Context) error {
	ctx, b.cancel = context.WithCancel(ctx)

	sub := b.rdb.Subscribe(ctx, eventsChannel)
	// Force the subscription to establish before we report started.
	if _, err := sub.Receive(ctx); err != nil {
		b.cancel()
		b.cancel = nil
		return err
	}

	go b.relay(ctx, sub)
	b.log.Info("redis event bridge started",
		logger.String("channel", eventsChannel),
		logger.String("instance", b.instanceID))
	return nil
}

// Stop tears down the relay loop and waits for it to exit. No-op when
// the bridge was never started.
func (b *Bridge) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
}

func (b *Bridge) relay(ctx context.Context, sub *redis.PubSub) {
	defer close(b.done)
	defer func() {
		if err := sub.Close(); err != nil {
			b.log.Warn("failed to close redis subscription", logger.Error(err))
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				b.log.Warn("redis event channel closed")
				return
			}
			b.inject(msg.Payload)
		}
	}
}

func (b *Bridge) inject(payload string) {
	var we wireEvent
	if err := json.Unmarshal([]byte(payload), &we); err != nil {
		b.log.Warn("discarding malformed change event", logger.Error(err))
		return
	}
	if we.Instance == b.instanceID {
		return // our own echo
	}

	ev := Event{
		Kind:    ParseKind(we.Kind),
		OwnerID: we.OwnerID,
		ID:      we.ID,
	}
	if we.Bookmark != nil {
		ev.Bookmark = *we.Bookmark
	}
	b.hub.Publish(ev)
}
