package events

import (
	"sync"
	"time"
)

// Entity names carried in change events.
const (
	EntityMenu  = "menu"
	EntityOrder = "order"
	EntityBill  = "bill"
)

// Actions carried in change events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Change describes a committed row-level change. Consumers treat it as an
// invalidation signal and re-read; no ordering or delivery guarantee beyond
// "eventually notified" is offered.
type Change struct {
	Entity string    `json:"entity"`
	Action string    `json:"action"`
	ID     int64     `json:"id"`
	At     time.Time `json:"at"`
}

// Publisher receives change events after the owning transaction commits.
type Publisher interface {
	Publish(change Change)
}

// MultiPublisher fans a change out to several transports.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(change Change) {
	for _, p := range m {
		p.Publish(change)
	}
}

// Hub is the in-process fanout feeding websocket subscribers. Slow consumers
// are skipped rather than blocking the publishing request.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Change]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Change]struct{})}
}

// Subscribe registers a buffered channel receiving future changes.
// The caller must Unsubscribe when done.
func (h *Hub) Subscribe() chan Change {
	ch := make(chan Change, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *Hub) Unsubscribe(ch chan Change) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers the change to every subscriber with room in its buffer.
func (h *Hub) Publish(change Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
