// Package realtime owns the two WebSocket push channels (session
// status and chat overview/messages), classifies inbound frames and
// routes them into the sync store.
package realtime

import (
	"context"
	"sync"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/store"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"go.uber.org/zap"
)

// SessionFetcher is the single-session REST read used for the
// authoritative refetch after a WORKING transition.
type SessionFetcher interface {
	GetSession(ctx context.Context, name string) (*waha.Session, error)
}

// Manager owns both push channels and routes their frames.
type Manager struct {
	store   *store.Store
	fetcher SessionFetcher
	logger  *zap.Logger

	sessionCh  *Channel
	overviewCh *Channel

	// fetching coalesces WORKING refetches per session name: a second
	// trigger while one is in flight for the same id is suppressed.
	fetchMu  sync.Mutex
	fetching map[string]struct{}
}

// NewManager creates a manager for the given endpoint URLs.
func NewManager(sessionURL, overviewURL string, st *store.Store, fetcher SessionFetcher, b *bus.Bus, logger *zap.Logger) *Manager {
	m := &Manager{
		store:    st,
		fetcher:  fetcher,
		logger:   logger,
		fetching: make(map[string]struct{}),
	}
	m.sessionCh = newChannel("session-status", sessionURL, b, logger, m.handleSessionFrame)
	m.overviewCh = newChannel("chat-overview", overviewURL, b, logger, m.handleOverviewFrame)
	return m
}

// Subscribe opens both channels (idempotently) and subscribes every
// session currently known to the store on each.
func (m *Manager) Subscribe(ctx context.Context) error {
	sessions := m.store.SessionNames()
	if err := m.sessionCh.Subscribe(ctx, sessions); err != nil {
		return err
	}
	return m.overviewCh.Subscribe(ctx, sessions)
}

// Resubscribe closes any failed channel and subscribes again with the
// current session set. Entry point for caller-driven recovery and for
// picking up sessions learned after the initial subscribe.
func (m *Manager) Resubscribe(ctx context.Context) error {
	for _, ch := range []*Channel{m.sessionCh, m.overviewCh} {
		if ch.State() == Failed || ch.State() == Open {
			ch.Close()
		}
	}
	return m.Subscribe(ctx)
}

// States returns the connection state of both channels.
func (m *Manager) States() (sessionState, overviewState State) {
	return m.sessionCh.State(), m.overviewCh.State()
}

// Close tears both channels down. Idempotent.
func (m *Manager) Close() {
	m.sessionCh.Close()
	m.overviewCh.Close()
}

func (m *Manager) handleSessionFrame(ctx context.Context, data []byte) {
	switch f := decodeFrame(data).(type) {
	case *sessionStatusFrame:
		m.applySessionStatus(ctx, f.Session)
	case *legacySessionFrame:
		switch f.Op {
		case "added":
			m.store.ApplySessionUpdate(f.Session)
		case "removed":
			m.store.RemoveSession(f.Session.Name)
		case "updated":
			m.store.ReplaceSession(f.Session)
		}
	}
}

// applySessionStatus merges a status push. A transition into WORKING
// from a non-WORKING state is not merged locally: the push payload for
// that transition is known-incomplete, so one coalesced REST refetch of
// the single session replaces the record authoritatively instead.
func (m *Manager) applySessionStatus(ctx context.Context, incoming waha.Session) {
	prev := m.store.SessionStatus(incoming.Name)
	if incoming.Status == waha.StatusWorking && prev != waha.StatusWorking {
		m.refetchSession(ctx, incoming.Name)
		return
	}
	m.store.ApplySessionUpdate(incoming)
}

func (m *Manager) refetchSession(ctx context.Context, name string) {
	m.fetchMu.Lock()
	if _, inFlight := m.fetching[name]; inFlight {
		m.fetchMu.Unlock()
		return
	}
	m.fetching[name] = struct{}{}
	m.fetchMu.Unlock()

	go func() {
		defer func() {
			m.fetchMu.Lock()
			delete(m.fetching, name)
			m.fetchMu.Unlock()
		}()

		sess, err := m.fetcher.GetSession(ctx, name)
		if err != nil {
			// Prior cache stays untouched; the next status push will
			// retrigger.
			m.logger.Warn("session refetch failed",
				zap.String("session", name),
				zap.Error(err))
			return
		}
		m.store.ReplaceSession(*sess)
	}()
}

func (m *Manager) handleOverviewFrame(_ context.Context, data []byte) {
	switch f := decodeFrame(data).(type) {
	case *overviewFrame:
		m.store.ApplyOverviewUpdate(f.Session, f.Overview)

	case *messageFrame:
		chatID := chatIDOf(&f.Message)
		if chatID == "" {
			return
		}
		m.store.AddMessage(chatID, f.Message)
		if f.Overview != nil {
			m.store.ApplyOverviewUpdate(f.Session, *f.Overview)
			return
		}
		m.store.ApplyOverviewUpdate(f.Session, synthesizeOverview(chatID, f))

	case *ackFrame:
		m.store.UpdateAck(f.ChatID, f.MessageID, f.Ack)
	}
}

// synthesizeOverview builds a minimal overview update from a bare
// message push so the chat list still reflects newest activity when no
// overview fragment accompanies the event. Name and picture stay nil,
// which the reconciler's stickiness turns into "keep whatever we have".
func synthesizeOverview(chatID string, f *messageFrame) waha.ChatOverview {
	msg := f.Message
	unread := 0
	if f.UnreadCount != nil {
		unread = *f.UnreadCount
	} else if !msg.FromMe && msg.Ack <= waha.AckSent {
		unread = 1
	}
	return waha.ChatOverview{
		ID:          chatID,
		LastMessage: &msg,
		UnreadCount: unread,
	}
}
