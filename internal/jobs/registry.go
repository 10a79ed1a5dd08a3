package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"go.uber.org/zap"
)

// Registry owns one poller per watched job id, so a bulk-list watcher
// and a detail watcher can run side by side and be torn down
// independently.
type Registry struct {
	api    JobAPI
	bus    *bus.Bus
	logger *zap.Logger

	mu      sync.Mutex
	pollers map[string]*Poller
}

// NewRegistry creates an empty poller registry.
func NewRegistry(api JobAPI, b *bus.Bus, logger *zap.Logger) *Registry {
	return &Registry{
		api:     api,
		bus:     b,
		logger:  logger,
		pollers: make(map[string]*Poller),
	}
}

// Watch starts (or returns) the poller for a job id. An existing poller
// is reused as-is, whatever its cadence.
func (r *Registry) Watch(ctx context.Context, jobID string, interval time.Duration) *Poller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pollers[jobID]; ok {
		return p
	}
	p := NewPoller(r.api, r.bus, r.logger)
	p.Start(ctx, jobID, interval)
	r.pollers[jobID] = p
	return p
}

// Get returns the poller for a job id, or nil.
func (r *Registry) Get(jobID string) *Poller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pollers[jobID]
}

// Unwatch stops and forgets one job's poller.
func (r *Registry) Unwatch(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pollers[jobID]; ok {
		p.Stop()
		delete(r.pollers, jobID)
	}
}

// Close stops every poller.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.pollers {
		p.Stop()
		delete(r.pollers, id)
	}
}
