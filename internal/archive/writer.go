package archive

import (
	"context"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/store"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"go.uber.org/zap"
)

// Writer mirrors store change events into the archive database. It is
// fully decoupled from the store: a slow disk can drop events under
// pressure but can never stall the sync path.
type Writer struct {
	db     *DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewWriter creates a write-through archiver.
func NewWriter(db *DB, b *bus.Bus, logger *zap.Logger) *Writer {
	return &Writer{
		db:     db,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to overview and message events.
func (w *Writer) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	overviews := w.bus.Subscribe("overview.", 256)
	messages := w.bus.Subscribe("message.", 256)

	go func() {
		defer overviews.Cancel()
		defer messages.Cancel()
		for {
			select {
			case evt := <-overviews.C:
				w.handleEvent(evt)
			case evt := <-messages.C:
				w.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the writer.
func (w *Writer) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Writer) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindOverviewUpdated:
		change, ok := evt.Payload.(store.OverviewChange)
		if !ok {
			return
		}
		if err := w.db.UpsertChat(chatRow(change)); err != nil {
			w.logger.Error("archive chat upsert failed",
				zap.String("chat", change.Entry.ID),
				zap.Error(err))
		}

	case bus.KindMessageUpserted:
		change, ok := evt.Payload.(store.MessageChange)
		if !ok {
			return
		}
		if err := w.db.UpsertMessage(messageRow(change.ChatID, change.Message)); err != nil {
			w.logger.Error("archive message upsert failed",
				zap.String("msg_id", change.Message.ID),
				zap.Error(err))
		}

	case bus.KindMessageAck:
		change, ok := evt.Payload.(store.AckChange)
		if !ok {
			return
		}
		if err := w.db.UpdateMessageAck(change.ChatID, change.MessageID, change.Ack); err != nil {
			w.logger.Error("archive ack update failed",
				zap.String("msg_id", change.MessageID),
				zap.Error(err))
		}
	}
}

func chatRow(change store.OverviewChange) *Chat {
	entry := change.Entry
	row := &Chat{
		Session:     change.Session,
		ChatID:      entry.ID,
		Name:        entry.Name,
		Picture:     entry.Picture,
		UnreadCount: entry.UnreadCount,
	}
	if entry.LastMessage != nil {
		row.LastMessageAt = entry.LastMessage.Timestamp
		row.LastMessagePreview = entry.LastMessage.Body
	}
	return row
}

func messageRow(chatID string, m waha.Message) *Message {
	return &Message{
		ChatID:    chatID,
		MsgID:     m.ID,
		Timestamp: m.Timestamp,
		FromMe:    m.FromMe,
		Author:    m.From,
		Body:      m.Body,
		HasMedia:  m.HasMedia,
		Ack:       m.Ack,
	}
}
