// Package notify fans out entity status-change events to registered
// subscribers. The bus is in-process; anything crossing a process boundary
// (webhooks, websockets) subscribes here and owns its own delivery.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Entity kinds carried in events.
const (
	KindDoctor       = "doctor"
	KindDispatchUnit = "dispatch_unit"
	KindConsultation = "consultation"
	KindEmergency    = "emergency"
)

// Event is the change-notification payload produced on every state
// transition.
type Event struct {
	ID         uuid.UUID `json:"id"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	NewStatus  string    `json:"new_status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher is the narrow interface services use to emit events.
type Publisher interface {
	Publish(entityKind, entityID, newStatus string) Event
}

// Handler receives published events. Handlers must not block; slow consumers
// should hand off to their own goroutine or channel.
type Handler func(Event)

type subscription struct {
	id    string
	kinds map[string]bool // empty means all kinds
	fn    Handler
}

// Bus is a thread-safe in-process event bus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	logger zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string]*subscription),
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

// Subscribe registers a handler for the given entity kinds (all kinds when
// none are given) and returns a subscription ID for Unsubscribe.
func (b *Bus) Subscribe(fn Handler, kinds ...string) string {
	sub := &subscription{
		id:    uuid.NewString(),
		kinds: make(map[string]bool, len(kinds)),
		fn:    fn,
	}
	for _, k := range kinds {
		sub.kinds[k] = true
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()
	return sub.id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

// Publish builds an event and delivers it to every matching subscriber.
// Delivery is synchronous and in registration-independent order.
func (b *Bus) Publish(entityKind, entityID, newStatus string) Event {
	evt := Event{
		ID:         uuid.New(),
		EntityKind: entityKind,
		EntityID:   entityID,
		NewStatus:  newStatus,
		Timestamp:  time.Now().UTC(),
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if len(sub.kinds) == 0 || sub.kinds[entityKind] {
			handlers = append(handlers, sub.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(evt)
	}

	b.logger.Debug().
		Str("entity_kind", entityKind).
		Str("entity_id", entityID).
		Str("new_status", newStatus).
		Int("subscribers", len(handlers)).
		Msg("event published")

	return evt
}
