// Package store holds the synchronized client-side view of sessions,
// per-session chat overviews and per-chat message logs. It reconciles
// three concurrent update sources (REST fetches, WebSocket pushes and
// local optimistic writes) into one ordered, deduplicated state.
//
// All mutations are copy-on-write: the slice or map value being touched
// is replaced, never modified in place, so snapshots handed to observers
// stay stable and reference comparison detects change. Consumers never
// mutate what the getters return.
package store

import (
	"sync"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
)

// DefaultSessionTTL is the validity window of the session collection
// cache. Push channels are the primary freshness mechanism; REST refetch
// is a fallback, so the window is deliberately long.
const DefaultSessionTTL = time.Hour

// Store is the process-wide state container. It is mutated only by the
// sync components (realtime manager, pagers, outbox, pollers) and
// observed by consumers through snapshots and bus subscriptions.
type Store struct {
	mu  sync.RWMutex
	bus *bus.Bus

	sessions          []waha.Session
	sessionsFetchedAt time.Time
	sessionTTL        time.Duration
	counts            *waha.SessionCounts

	// overviews is keyed by session name, each list ordered most
	// recently updated first. messages is keyed by chat id.
	overviews map[string][]waha.ChatOverview
	messages  map[string][]waha.Message
}

// OverviewChange is the bus payload for overview events.
type OverviewChange struct {
	Session string
	Entry   waha.ChatOverview
}

// MessageChange is the bus payload for message upsert events.
type MessageChange struct {
	ChatID  string
	Message waha.Message
}

// AckChange is the bus payload for delivery-ack events.
type AckChange struct {
	ChatID    string
	MessageID string
	Ack       int
}

// New creates an empty store publishing change events on b.
func New(b *bus.Bus, sessionTTL time.Duration) *Store {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Store{
		bus:        b,
		sessionTTL: sessionTTL,
		overviews:  make(map[string][]waha.ChatOverview),
		messages:   make(map[string][]waha.Message),
	}
}

func (s *Store) publish(kind bus.Kind, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(kind, payload)
}

// Sessions returns the current session snapshot.
func (s *Store) Sessions() []waha.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

// SessionNames returns the names of all known sessions, in cache order.
func (s *Store) SessionNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.sessions))
	for i, sess := range s.sessions {
		names[i] = sess.Name
	}
	return names
}

// Counts returns the last fetched session count info, or nil.
func (s *Store) Counts() *waha.SessionCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts
}

// SetCounts stores the company session-count info.
func (s *Store) SetCounts(c *waha.SessionCounts) {
	s.mu.Lock()
	s.counts = c
	s.mu.Unlock()
}

// Overview returns the current overview snapshot for one session.
func (s *Store) Overview(session string) []waha.ChatOverview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overviews[session]
}

// HasOverview reports whether any overview page was loaded for session.
func (s *Store) HasOverview(session string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.overviews[session]
	return ok
}
