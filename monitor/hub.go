// Package monitor streams contact transitions to websocket clients and
// serves snapshots of a running world.
package monitor

import (
	"sync"
	"sync/atomic"

	"github.com/lguibr/touchstone/contact"
)

const defaultBuffer = 64

// Event is one transition as sent to subscribers.
type Event struct {
	Seq uint64 `json:"seq"`
	contact.Transition
}

// Subscription receives events until it is closed by Hub.Unsubscribe.
type Subscription struct {
	C       <-chan Event
	ch      chan Event
	dropped atomic.Uint64
}

// Dropped counts events discarded because the subscriber fell behind.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Hub fans transitions out to subscribers. OnTransition never blocks, so a
// slow client cannot stall the simulation.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	seq    atomic.Uint64
	buffer int
}

var _ contact.Observer = (*Hub)(nil)

// NewHub creates a hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) OnTransition(t contact.Transition) {
	ev := Event{Seq: h.seq.Add(1), Transition: t}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
		}
	}
}
