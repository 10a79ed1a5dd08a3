// Package bus is the in-process event spine of the daemon: the store
// and pollers publish, the archive writer and other observers
// subscribe by kind prefix.
package bus

import (
	"strings"
	"sync"
	"time"
)

// Bus fans events out to prefix-matched subscribers. Delivery is
// non-blocking: a subscriber that stops draining loses events rather
// than stalling publishers.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
}

// Subscription is a live feed of events whose kind starts with the
// requested prefix. Read from C; call Cancel when done.
type Subscription struct {
	C <-chan Event

	bus    *Bus
	prefix Kind
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// Publish stamps the event with the current time and fans it out.
// Subscribers with full buffers are skipped, never waited on.
func (b *Bus) Publish(kind Kind, payload any) {
	evt := Event{Kind: kind, At: time.Now(), Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.matches(kind) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Subscribe opens a feed for kinds starting with prefix. The empty
// prefix matches everything. buf bounds how far the subscriber may lag
// before events are dropped.
func (b *Bus) Subscribe(prefix Kind, buf int) *Subscription {
	ch := make(chan Event, buf)
	sub := &Subscription{C: ch, bus: b, prefix: prefix, ch: ch}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub
}

func (s *Subscription) matches(kind Kind) bool {
	return strings.HasPrefix(string(kind), string(s.prefix))
}

// Cancel removes the subscription. Events already buffered on C stay
// readable.
func (s *Subscription) Cancel() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	for i, sub := range s.bus.subs {
		if sub == s {
			s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
			return
		}
	}
}
