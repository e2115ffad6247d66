package realtime

import (
	"sync"

	"github.com/nuumi-app/backend/pkg/metrics"
	"github.com/pkg/errors"
)

// ErrHubClosed is returned by Subscribe after the hub has shut down
var ErrHubClosed = errors.New("realtime: hub closed")

const defaultBuffer = 64

// Subscription is one listener on a table's change feed. Events arrive on
// Events() in publish order. Close detaches the subscription synchronously
// and may be called any number of times; no event is delivered after Close
// returns.
type Subscription struct {
	hub    *Hub
	id     uint64
	table  string
	filter Filter
	events chan Event
	once   sync.Once
}

// Events returns the ordered event channel. The channel is closed when
// the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close detaches the subscription from the hub. Idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		close(s.events)
		metrics.ActiveSubscriptions.Dec()
	})
}

// Hub fans row-change events out to subscribers. Each subscriber has its
// own buffered channel, so delivery order is preserved per subscription
// and a slow subscriber cannot block the others; events that do not fit a
// full buffer are dropped and counted.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
	closed bool
}

// NewHub creates a hub with the default per-subscriber buffer
func NewHub() *Hub {
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: defaultBuffer,
	}
}

// Subscribe registers a listener for changes on a table, optionally
// restricted by an equality filter (e.g. conversation_id = "7").
func (h *Hub) Subscribe(table string, filter Filter) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	h.nextID++
	sub := &Subscription{
		hub:    h,
		id:     h.nextID,
		table:  table,
		filter: filter,
		events: make(chan Event, h.buffer),
	}
	h.subs[sub.id] = sub
	metrics.ActiveSubscriptions.Inc()
	return sub, nil
}

// Publish delivers an event to every subscription whose table and filter
// match. Publish never blocks: a subscriber whose buffer is full loses
// the event.
func (h *Hub) Publish(ev Event) {
	metrics.EventsPublished.WithLabelValues(ev.Table, string(ev.Action)).Inc()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.table != ev.Table {
			continue
		}
		if !sub.filter.Matches(ev) {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			metrics.EventsDropped.WithLabelValues(ev.Table).Inc()
		}
	}
}

// Close shuts the hub down and closes every remaining subscription
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	remaining := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		remaining = append(remaining, sub)
	}
	h.mu.Unlock()

	for _, sub := range remaining {
		sub.Close()
	}
}

// remove is called by Subscription.Close under its own once guard
func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}
