// Package jobs tracks asynchronous bulk-send jobs by polling the
// backend. Progress is never fabricated locally; every snapshot the
// poller publishes came from a status read.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/Welt-Agency/waha-frontend/internal/bus"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"go.uber.org/zap"
)

// JobAPI is the slice of the backend client the poller needs.
type JobAPI interface {
	GetJob(ctx context.Context, id string) (*waha.BulkJob, error)
	CancelJob(ctx context.Context, id string) error
}

// Poller states.
const (
	Idle       = "IDLE"
	Polling    = "POLLING"
	Cancelling = "CANCELLING"
	Finished   = "FINISHED"
	Failed     = "FAILED"
)

// Cadence bounds. The server's delay hint is advisory; the clamp keeps
// a hostile or buggy hint from either hammering the backend or leaving
// the job invisible for minutes.
const (
	minInterval    = 2 * time.Second
	maxInterval    = 10 * time.Second
	detailInterval = time.Second
)

// Interval converts a delay hint in seconds into the polling cadence
// for a freshly started job.
func Interval(delayHintSeconds float64) time.Duration {
	d := time.Duration(delayHintSeconds * float64(time.Second))
	return min(max(d, minInterval), maxInterval)
}

// DetailInterval is the cadence for watching an already-running job up
// close, where a one-second floor is acceptable.
func DetailInterval(delayHintSeconds float64) time.Duration {
	d := time.Duration(delayHintSeconds * float64(time.Second))
	return max(d, detailInterval)
}

// Poller follows one bulk job until it reports finished. Snapshots go
// out on the bus under the jobs namespace.
type Poller struct {
	api    JobAPI
	bus    *bus.Bus
	logger *zap.Logger

	mu       sync.Mutex
	state    string
	jobID    string
	interval time.Duration
	last     *waha.BulkJob
	stop     context.CancelFunc
	done     chan struct{}
}

func NewPoller(api JobAPI, b *bus.Bus, logger *zap.Logger) *Poller {
	return &Poller{
		api:    api,
		bus:    b,
		logger: logger,
		state:  Idle,
	}
}

// State returns the poller's current lifecycle state.
func (p *Poller) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Interval returns the cadence the poller was started with.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Last returns the most recent snapshot, or nil before the first read.
func (p *Poller) Last() *waha.BulkJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Start begins following a job: one immediate read, then ticks at the
// given interval until the job reports finished, a read fails, or the
// poller is stopped. Starting an already-running poller is a no-op.
func (p *Poller) Start(ctx context.Context, jobID string, interval time.Duration) {
	p.mu.Lock()
	if p.state == Polling || p.state == Cancelling {
		p.mu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.state = Polling
	p.jobID = jobID
	p.interval = interval
	p.last = nil
	p.stop = cancel
	p.done = done
	p.mu.Unlock()

	go p.run(pollCtx, jobID, interval, done)
}

// Cancel asks the backend to stop the job, then forces one immediate
// status read whether or not the mutation succeeded: the backend stays
// authoritative either way, and a rejected cancel still deserves a
// fresh snapshot. Polling continues afterwards; the job is only over
// when the backend says it is finished, cancelled or not.
func (p *Poller) Cancel(ctx context.Context) error {
	p.mu.Lock()
	if p.state != Polling {
		p.mu.Unlock()
		return nil
	}
	p.state = Cancelling
	jobID := p.jobID
	p.mu.Unlock()

	err := p.api.CancelJob(ctx, jobID)
	if err != nil {
		p.mu.Lock()
		if p.state == Cancelling {
			p.state = Polling
		}
		p.mu.Unlock()
	}
	p.read(ctx, jobID)
	return err
}

// Stop tears the poll loop down without touching the backend job.
// Idempotent; safe in any state.
func (p *Poller) Stop() {
	p.mu.Lock()
	stop := p.stop
	done := p.done
	p.stop = nil
	p.mu.Unlock()

	if stop != nil {
		stop()
	}
	if done != nil {
		<-done
	}

	p.mu.Lock()
	if p.state == Polling || p.state == Cancelling {
		p.state = Idle
	}
	p.mu.Unlock()
}

func (p *Poller) run(ctx context.Context, jobID string, interval time.Duration, done chan struct{}) {
	defer close(done)

	if terminal := p.read(ctx, jobID); terminal {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if terminal := p.read(ctx, jobID); terminal {
				return
			}
		}
	}
}

// read performs one status read and publishes the snapshot. It reports
// whether polling should stop, and moves the poller into its terminal
// state when so.
func (p *Poller) read(ctx context.Context, jobID string) bool {
	job, err := p.api.GetJob(ctx, jobID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Warn("job status read failed",
			zap.String("job", jobID),
			zap.Error(err))
		p.mu.Lock()
		p.state = Failed
		p.mu.Unlock()
		return true
	}

	p.mu.Lock()
	p.last = job
	if job.Finished {
		p.state = Finished
	}
	p.mu.Unlock()

	p.bus.Publish(bus.KindJobUpdated, *job)
	return job.Finished
}
