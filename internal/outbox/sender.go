// Package outbox queues outgoing text messages and drains them against
// the backend. The chat list is updated optimistically on enqueue; the
// message log only ever holds backend-acknowledged records.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/store"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TextSender is the slice of the backend client used for sends.
type TextSender interface {
	SendText(ctx context.Context, req *waha.SendTextRequest) (*waha.SendTextResult, error)
}

// Entry is one queued outgoing message.
type Entry struct {
	ClientID string
	Session  string
	ChatID   string
	Text     string
	ReplyTo  *string
}

// Sender drains the outbox queue against the backend.
type Sender struct {
	client TextSender
	store  *store.Store
	bus    *bus.Bus
	logger *zap.Logger

	// refetch, when set, is invoked shortly after a successful send so
	// the message log picks up the backend's canonical record.
	refetch func(ctx context.Context, session, chatID string)

	mu      sync.Mutex
	pending []Entry
	cancel  context.CancelFunc
}

// NewSender creates an outbox sender.
func NewSender(client TextSender, st *store.Store, b *bus.Bus, logger *zap.Logger) *Sender {
	return &Sender{
		client: client,
		store:  st,
		bus:    b,
		logger: logger,
	}
}

// SetRefetch installs the post-send log refresh hook.
func (s *Sender) SetRefetch(fn func(ctx context.Context, session, chatID string)) {
	s.refetch = fn
}

// Enqueue accepts an outgoing message and immediately moves its chat to
// the front of the overview with the draft as last message. Returns the
// client-side id of the queued entry.
func (s *Sender) Enqueue(session, chatID, text string, replyTo *string) string {
	entry := Entry{
		ClientID: uuid.NewString(),
		Session:  session,
		ChatID:   chatID,
		Text:     text,
		ReplyTo:  replyTo,
	}

	s.mu.Lock()
	s.pending = append(s.pending, entry)
	s.mu.Unlock()

	// Optimistic: the chat list reflects the send before the backend
	// confirms it. The log does not; it waits for the acknowledgment.
	s.store.ApplyOverviewUpdate(session, waha.ChatOverview{
		ID: chatID,
		LastMessage: &waha.Message{
			ID:        entry.ClientID,
			Timestamp: time.Now().Unix(),
			FromMe:    true,
			Body:      text,
			Ack:       waha.AckPending,
		},
		UnreadCount: 0,
		SessionName: session,
	})
	return entry.ClientID
}

// Pending returns the number of queued entries.
func (s *Sender) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Start begins draining the queue.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the drain loop. Queued entries stay queued.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.drain(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) drain(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, entry := range batch {
		s.send(ctx, entry)
	}
}

func (s *Sender) send(ctx context.Context, entry Entry) {
	res, err := s.client.SendText(ctx, &waha.SendTextRequest{
		ChatID:  entry.ChatID,
		ReplyTo: entry.ReplyTo,
		Text:    entry.Text,
		Session: entry.Session,
	})
	if err != nil {
		s.logger.Error("send failed",
			zap.String("client_id", entry.ClientID),
			zap.String("chat", entry.ChatID),
			zap.Error(err))
		s.bus.Publish(bus.KindOutboxFailed, entry)
		return
	}

	// The acknowledged record enters the log under the backend's id.
	sent := waha.Message{
		ID:        res.ID,
		Timestamp: time.Now().Unix(),
		FromMe:    true,
		Body:      entry.Text,
		Ack:       waha.AckSent,
	}
	s.store.AddMessage(entry.ChatID, sent)
	s.store.ApplyOverviewUpdate(entry.Session, waha.ChatOverview{
		ID:          entry.ChatID,
		LastMessage: &sent,
		UnreadCount: 0,
		SessionName: entry.Session,
	})
	s.bus.Publish(bus.KindOutboxSent, entry)

	if s.refetch != nil {
		time.AfterFunc(time.Second, func() {
			s.refetch(ctx, entry.Session, entry.ChatID)
		})
	}
}
