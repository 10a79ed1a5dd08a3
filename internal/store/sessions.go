package store

import (
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
)

// ShouldFetchSessions reports whether the session collection cache has
// expired. A force refresh bypasses this gate entirely; a failed fetch
// must not call MarkSessionsFetched, so the next attempt is not
// silently suppressed.
func (s *Store) ShouldFetchSessions(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sessionsFetchedAt.IsZero() {
		return true
	}
	return now.Sub(s.sessionsFetchedAt) >= s.sessionTTL
}

// MarkSessionsFetched advances the freshness token. Call only after a
// successful fetch.
func (s *Store) MarkSessionsFetched(now time.Time) {
	s.mu.Lock()
	s.sessionsFetchedAt = now
	s.mu.Unlock()
}

// SetSessions replaces the whole session collection (initial or forced
// REST fetch).
func (s *Store) SetSessions(sessions []waha.Session) {
	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
	for _, sess := range sessions {
		s.publish(bus.KindSessionUpdated, sess)
	}
}

// ApplySessionUpdate merges a partial session update (status push) into
// the cache, creating the session when unknown. Status is always taken
// from the update; identity (Me) only when present, because push
// payloads omit fields the backend considers unchanged.
func (s *Store) ApplySessionUpdate(incoming waha.Session) {
	s.mu.Lock()
	next := make([]waha.Session, len(s.sessions))
	copy(next, s.sessions)

	found := false
	for i := range next {
		if next[i].Name != incoming.Name {
			continue
		}
		merged := next[i]
		merged.Status = incoming.Status
		if incoming.Me != nil {
			merged.Me = incoming.Me
		}
		if incoming.AssignedWorker != "" {
			merged.AssignedWorker = incoming.AssignedWorker
		}
		next[i] = merged
		incoming = merged
		found = true
		break
	}
	if !found {
		next = append(next, incoming)
	}
	s.sessions = next
	s.mu.Unlock()

	s.publish(bus.KindSessionUpdated, incoming)
}

// ReplaceSession overwrites one session record wholesale. Used for the
// authoritative REST refetch after a WORKING transition and for legacy
// "updated" frames, which carry complete records.
func (s *Store) ReplaceSession(incoming waha.Session) {
	s.mu.Lock()
	next := make([]waha.Session, len(s.sessions))
	copy(next, s.sessions)

	found := false
	for i := range next {
		if next[i].Name == incoming.Name {
			next[i] = incoming
			found = true
			break
		}
	}
	if !found {
		next = append(next, incoming)
	}
	s.sessions = next
	s.mu.Unlock()

	s.publish(bus.KindSessionUpdated, incoming)
}

// RemoveSession drops a session from the cache (explicit delete or a
// legacy "removed" frame). Overviews and messages are left alone:
// archival is a display-time filter, not a store mutation.
func (s *Store) RemoveSession(name string) {
	s.mu.Lock()
	next := make([]waha.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.Name != name {
			next = append(next, sess)
		}
	}
	s.sessions = next
	s.mu.Unlock()

	s.publish(bus.KindSessionRemoved, name)
}

// SessionStatus returns the cached status for a session name, or "" when
// the session is unknown.
func (s *Store) SessionStatus(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.Name == name {
			return sess.Status
		}
	}
	return ""
}
