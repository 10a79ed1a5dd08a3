// Package prefetch warms the overview cache for every known session in
// the background, so switching sessions does not start from a cold list.
package prefetch

import (
	"context"
	"sync"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/store"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"go.uber.org/zap"
)

// OverviewFetcher is the slice of the backend client the prefetcher uses.
type OverviewFetcher interface {
	ChatOverview(ctx context.Context, session string, limit, offset int) ([]waha.ChatOverview, error)
}

// Prefetcher walks the session list and fetches the first overview page
// for each session that has none cached yet.
type Prefetcher struct {
	client  OverviewFetcher
	store   *store.Store
	logger  *zap.Logger
	limit   int
	stagger time.Duration

	mu      sync.Mutex
	exclude map[string]struct{}
}

// New creates a prefetcher. limit is the overview page size; stagger is
// the pause between per-session fetches so the warm-up never bursts.
func New(client OverviewFetcher, st *store.Store, logger *zap.Logger, limit int, stagger time.Duration) *Prefetcher {
	return &Prefetcher{
		client:  client,
		store:   st,
		logger:  logger,
		limit:   limit,
		stagger: stagger,
		exclude: make(map[string]struct{}),
	}
}

// Exclude marks a session the prefetcher must skip, e.g. the one the
// caller is about to load in the foreground anyway. Safe to call while
// Run is in flight.
func (p *Prefetcher) Exclude(session string) {
	p.mu.Lock()
	p.exclude[session] = struct{}{}
	p.mu.Unlock()
}

func (p *Prefetcher) excluded(session string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.exclude[session]
	return ok
}

// Run performs one warm-up pass over the current session list. Sessions
// with a cached overview are skipped; a failed fetch is logged and the
// walk continues. Returns early when ctx is cancelled.
func (p *Prefetcher) Run(ctx context.Context) {
	for _, session := range p.store.SessionNames() {
		if p.excluded(session) {
			continue
		}
		if p.store.HasOverview(session) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return
		}

		page, err := p.client.ChatOverview(ctx, session, p.limit, 0)
		if err != nil {
			p.logger.Warn("overview prefetch failed",
				zap.String("session", session),
				zap.Error(err))
		} else {
			p.store.ApplyOverviewPage(session, page)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.stagger):
		}
	}
}
