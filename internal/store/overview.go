package store

import (
	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
)

// mergeOverview builds the merged entry field by field. Name and picture
// are sticky: a nil incoming value keeps the old one, because partial
// push payloads omit fields the backend considers unchanged and a naive
// overwrite would flicker avatars to blank on every message.
// LastMessage and unread count are always taken from the incoming update.
func mergeOverview(old, incoming waha.ChatOverview) waha.ChatOverview {
	merged := old
	if incoming.Name != nil {
		merged.Name = incoming.Name
	}
	if incoming.Picture != nil {
		merged.Picture = incoming.Picture
	}
	merged.LastMessage = incoming.LastMessage
	merged.UnreadCount = incoming.UnreadCount
	if incoming.SessionName != "" {
		merged.SessionName = incoming.SessionName
	}
	if len(incoming.Chat) > 0 {
		merged.Chat = incoming.Chat
	}
	return merged
}

// ApplyOverviewUpdate merges one incoming update (push or optimistic
// local write) into the session's overview list and moves the entry to
// the front. Entries are keyed by (session, chat id); updates never
// deduplicate across sessions.
func (s *Store) ApplyOverviewUpdate(session string, incoming waha.ChatOverview) {
	s.mu.Lock()
	list := s.overviews[session]

	idx := -1
	for i := range list {
		if list[i].ID == incoming.ID {
			idx = i
			break
		}
	}

	var entry waha.ChatOverview
	var next []waha.ChatOverview
	if idx == -1 {
		entry = incoming
		next = make([]waha.ChatOverview, 0, len(list)+1)
		next = append(next, entry)
		next = append(next, list...)
	} else {
		entry = mergeOverview(list[idx], incoming)
		next = make([]waha.ChatOverview, 0, len(list))
		next = append(next, entry)
		next = append(next, list[:idx]...)
		next = append(next, list[idx+1:]...)
	}
	s.overviews[session] = next
	s.mu.Unlock()

	s.publish(bus.KindOverviewUpdated, OverviewChange{Session: session, Entry: entry})
}

// ApplyOverviewPage merges one fetched page into the session's list.
// Pages are windows, not snapshots: resident entries absent from the
// page are left untouched. Resident entries present in the page are
// field-merged in place (no repositioning, so a late-arriving stale
// page cannot reshuffle an order already advanced by pushes); unseen
// entries are appended, preserving the page's newest-first order.
func (s *Store) ApplyOverviewPage(session string, page []waha.ChatOverview) {
	if len(page) == 0 {
		return
	}

	s.mu.Lock()
	list := s.overviews[session]
	next := make([]waha.ChatOverview, len(list))
	copy(next, list)

	byID := make(map[string]int, len(next))
	for i := range next {
		byID[next[i].ID] = i
	}

	changed := make([]waha.ChatOverview, 0, len(page))
	for _, incoming := range page {
		if i, ok := byID[incoming.ID]; ok {
			next[i] = mergeOverview(next[i], incoming)
			changed = append(changed, next[i])
		} else {
			byID[incoming.ID] = len(next)
			next = append(next, incoming)
			changed = append(changed, incoming)
		}
	}
	s.overviews[session] = next
	s.mu.Unlock()

	for _, entry := range changed {
		s.publish(bus.KindOverviewUpdated, OverviewChange{Session: session, Entry: entry})
	}
}
