// Package events provides the notification bus for the temporal core.
// Systems publish one-shot notifications (tier changed, anchor expired,
// bankruptcy started) that presentation layers consume. The bus is an
// explicitly constructed object injected into each system; there is no
// global instance.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a core notification.
type EventType string

const (
	EventTypeTimeFrozen   EventType = "TIME_FROZEN"
	EventTypeTimeUnfrozen EventType = "TIME_UNFROZEN"

	EventTypeDebtChanged       EventType = "DEBT_CHANGED"
	EventTypeDebtTierChanged   EventType = "DEBT_TIER_CHANGED"
	EventTypeDebtAbsorbed      EventType = "DEBT_ABSORBED"
	EventTypeBankruptcyStarted EventType = "BANKRUPTCY_STARTED"
	EventTypeBankruptcyEnded   EventType = "BANKRUPTCY_ENDED"

	EventTypeAnchorPlaced       EventType = "ANCHOR_PLACED"
	EventTypeAnchorRecalled     EventType = "ANCHOR_RECALLED"
	EventTypeAnchorExpired      EventType = "ANCHOR_EXPIRED"
	EventTypeAnchorLimitReached EventType = "ANCHOR_LIMIT_REACHED"

	EventTypeMomentumMaxReached EventType = "MOMENTUM_MAX_REACHED"
	EventTypeMomentumDepleted   EventType = "MOMENTUM_DEPLETED"

	EventTypeResonanceWarning   EventType = "RESONANCE_WARNING"
	EventTypeResonanceWave      EventType = "RESONANCE_WAVE_STARTED"
	EventTypeResonanceWaveEnded EventType = "RESONANCE_WAVE_ENDED"

	EventTypeRewindUsed      EventType = "REWIND_USED"
	EventTypeRewindRecharged EventType = "REWIND_RECHARGED"

	EventTypeCloneSpawned   EventType = "CLONE_SPAWNED"
	EventTypeCloneCompleted EventType = "CLONE_COMPLETED"

	EventTypeCheckpointReached EventType = "CHECKPOINT_REACHED"
)

// Event is an immutable record of a core notification.
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"` // Notification-specific data
}

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine; the core is single-threaded per frame.
type Handler func(Event)

// EventPersister defines how a notification is durably stored.
type EventPersister interface {
	Append(event Event) error
}

// historyLimit bounds the in-memory event history kept for replay endpoints.
const historyLimit = 256

// Bus routes notifications to subscribed handlers and retains a bounded
// history. An optional persister receives a write-through copy of every
// event.
type Bus struct {
	mu          sync.RWMutex
	handlers    map[EventType][]Handler
	allHandlers []Handler
	history     []Event
	persister   EventPersister
}

// NewBus creates a bus with an optional persister (nil disables persistence).
func NewBus(persister EventPersister) *Bus {
	return &Bus{
		handlers:  make(map[EventType][]Handler),
		history:   make([]Event, 0, historyLimit),
		persister: persister,
	}
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], h)
	b.mu.Unlock()
}

// SubscribeAll registers a handler for every event type. Used by the
// broadcast layer, which forwards the whole feed.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	b.allHandlers = append(b.allHandlers, h)
	b.mu.Unlock()
}

// Publish stamps the event with an ID and timestamp, records it, and
// delivers it to all handlers registered for its type.
func (b *Bus) Publish(t EventType, payload interface{}) Event {
	event := Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      t,
		Payload:   payload,
	}

	b.mu.Lock()
	b.history = append(b.history, event)
	if len(b.history) > historyLimit {
		b.history = b.history[len(b.history)-historyLimit:]
	}
	handlers := b.handlers[t]
	all := b.allHandlers
	b.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
	for _, h := range all {
		h(event)
	}

	if b.persister != nil {
		_ = b.persister.Append(event)
	}
	return event
}

// History returns up to limit most recent events, newest last.
// limit <= 0 returns the full retained history.
func (b *Bus) History(limit int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}

// HistoryByType returns retained events of a single type, oldest first.
func (b *Bus) HistoryByType(t EventType) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, e := range b.history {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// HandlerCount reports the number of handlers registered for a type.
func (b *Bus) HandlerCount(t EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[t])
}
