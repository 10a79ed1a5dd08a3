package store

import (
	"sort"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
)

// AddMessage upserts one message into a chat's log, deduplicated by
// message id. A later write with the same id replaces the earlier one in
// place (status refinement), never duplicates.
func (s *Store) AddMessage(chatID string, m waha.Message) {
	s.mu.Lock()
	list := s.messages[chatID]
	next := make([]waha.Message, len(list))
	copy(next, list)

	found := false
	for i := range next {
		if next[i].ID == m.ID {
			next[i] = m
			found = true
			break
		}
	}
	if !found {
		next = append(next, m)
	}
	s.messages[chatID] = next
	s.mu.Unlock()

	s.publish(bus.KindMessageUpserted, MessageChange{ChatID: chatID, Message: m})
}

// AddMessagePage merges one fetched history page. The fetch API returns
// newest-first pages, so the page is walked in reverse to keep the
// underlying log roughly ascending; exact display order is settled at
// read time by Messages.
func (s *Store) AddMessagePage(chatID string, page []waha.Message) {
	for i := len(page) - 1; i >= 0; i-- {
		s.AddMessage(chatID, page[i])
	}
}

// UpdateAck sets the delivery ack of one known message. Unknown ids are
// a silent no-op: ack updates may race ahead of the message body, and
// the lost update self-heals on the next fetch.
func (s *Store) UpdateAck(chatID, messageID string, ack int) {
	s.mu.Lock()
	list := s.messages[chatID]
	idx := -1
	for i := range list {
		if list[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	next := make([]waha.Message, len(list))
	copy(next, list)
	next[idx].Ack = ack
	s.messages[chatID] = next
	s.mu.Unlock()

	s.publish(bus.KindMessageAck, AckChange{ChatID: chatID, MessageID: messageID, Ack: ack})
}

// Messages returns the chat's log sorted by timestamp ascending. The
// sort happens at read time because out-of-order arrival (an older page
// fetched after a newer push) is common.
func (s *Store) Messages(chatID string) []waha.Message {
	s.mu.RLock()
	list := s.messages[chatID]
	s.mu.RUnlock()

	out := make([]waha.Message, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
