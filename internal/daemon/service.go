package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/config"
	"github.com/Welt-Agency/waha-frontend/internal/jobs"
	"github.com/Welt-Agency/waha-frontend/internal/pager"
	"github.com/Welt-Agency/waha-frontend/internal/store"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"go.uber.org/zap"
)

// Service is the daemon's operation surface: session refresh through
// the TTL gate, incremental page loading for overviews and message
// history, and chat opening with read receipts.
type Service struct {
	client   *waha.Client
	store    *store.Store
	registry *jobs.Registry
	logger   *zap.Logger
	cfg      *config.Config

	mu             sync.Mutex
	overviewPagers map[string]*pager.Pager[waha.ChatOverview]
	messagePagers  map[string]*pager.Pager[waha.Message]
}

// NewService creates the operation surface.
func NewService(client *waha.Client, st *store.Store, registry *jobs.Registry, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		client:         client,
		store:          st,
		registry:       registry,
		logger:         logger,
		cfg:            cfg,
		overviewPagers: make(map[string]*pager.Pager[waha.ChatOverview]),
		messagePagers:  make(map[string]*pager.Pager[waha.Message]),
	}
}

// EnsureSessions refreshes the session list when the TTL gate demands
// it, otherwise serves the cache untouched. Freshness only advances on
// success. The seat counts ride along; their failure is non-fatal.
func (s *Service) EnsureSessions(ctx context.Context) error {
	if !s.store.ShouldFetchSessions(time.Now()) {
		return nil
	}
	return s.RefreshSessions(ctx)
}

// RefreshSessions fetches the session list unconditionally, bypassing
// the TTL gate. This backs the manual refresh action. A failed fetch
// leaves both the cache and the freshness token untouched, so the gate
// still demands a fetch afterwards.
func (s *Service) RefreshSessions(ctx context.Context) error {
	now := time.Now()

	sessions, err := s.client.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	s.store.SetSessions(sessions)
	s.store.MarkSessionsFetched(now)

	counts, err := s.client.SessionCounts(ctx)
	if err != nil {
		s.logger.Warn("session counts fetch failed", zap.Error(err))
	} else {
		s.store.SetCounts(counts)
	}

	s.logger.Info("sessions refreshed", zap.Int("count", len(sessions)))
	return nil
}

// overviewPager returns the per-session overview pager, creating it on
// first use.
func (s *Service) overviewPager(session string) *pager.Pager[waha.ChatOverview] {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.overviewPagers[session]
	if !ok {
		p = pager.New(s.cfg.OverviewPageSize,
			func(ctx context.Context, limit, offset int) ([]waha.ChatOverview, error) {
				return s.client.ChatOverview(ctx, session, limit, offset)
			},
			func(page []waha.ChatOverview) {
				s.store.ApplyOverviewPage(session, page)
			})
		s.overviewPagers[session] = p
	}
	return p
}

func (s *Service) messagePager(session, chatID string) *pager.Pager[waha.Message] {
	key := session + "/" + chatID
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.messagePagers[key]
	if !ok {
		p = pager.New(s.cfg.MessagePageSize,
			func(ctx context.Context, limit, offset int) ([]waha.Message, error) {
				return s.client.ListMessages(ctx, session, chatID, limit, offset)
			},
			func(page []waha.Message) {
				s.store.AddMessagePage(chatID, page)
			})
		s.messagePagers[key] = p
	}
	return p
}

// LoadMoreOverview loads the next overview page for a session. Returns
// whether another page may follow.
func (s *Service) LoadMoreOverview(ctx context.Context, session string) (bool, error) {
	p := s.overviewPager(session)
	if _, err := p.LoadMore(ctx); err != nil {
		return p.HasMore(), err
	}
	return p.HasMore(), nil
}

// LoadMoreMessages loads the next (older) message page for a chat.
func (s *Service) LoadMoreMessages(ctx context.Context, session, chatID string) (bool, error) {
	p := s.messagePager(session, chatID)
	if _, err := p.LoadMore(ctx); err != nil {
		return p.HasMore(), err
	}
	return p.HasMore(), nil
}

// OpenChat loads the first message page when the log is cold and marks
// the chat as read. Read-receipt failure is logged, never surfaced; the
// chat still opens.
func (s *Service) OpenChat(ctx context.Context, session, chatID string) error {
	p := s.messagePager(session, chatID)
	if p.Offset() == 0 {
		if _, err := p.LoadMore(ctx); err != nil {
			return fmt.Errorf("load chat %s: %w", chatID, err)
		}
	}

	if err := s.client.SendSeen(ctx, &waha.PresenceRequest{
		ChatID:  chatID,
		Session: session,
	}); err != nil {
		s.logger.Warn("send seen failed",
			zap.String("chat", chatID),
			zap.Error(err))
	}
	return nil
}

// RefreshChat re-reads the newest message page of a chat and merges it
// into the log, without disturbing the chat's paging offset. Used after
// a send to pick up the backend's canonical record.
func (s *Service) RefreshChat(ctx context.Context, session, chatID string) {
	page, err := s.client.ListMessages(ctx, session, chatID, s.cfg.MessagePageSize, 0)
	if err != nil {
		s.logger.Warn("chat refresh failed",
			zap.String("chat", chatID),
			zap.Error(err))
		return
	}
	s.store.AddMessagePage(chatID, page)
}
