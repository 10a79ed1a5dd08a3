package daemon

import (
	"context"
	"fmt"

	"github.com/Welt-Agency/waha-frontend/internal/jobs"
	"github.com/Welt-Agency/waha-frontend/internal/waha"
	"go.uber.org/zap"
)

// StartBulkSend submits a bulk send and begins following its job. The
// poll cadence derives from the job's own per-message delay, since that
// is how fast progress can actually move; the configured hint is the
// fallback for requests that carry none.
func (s *Service) StartBulkSend(ctx context.Context, req *waha.BulkSendRequest) (string, error) {
	res, err := s.client.SendTextMultiple(ctx, req)
	if err != nil {
		return "", fmt.Errorf("start bulk send: %w", err)
	}

	hint := float64(req.MessageDelaySeconds)
	if hint <= 0 {
		hint = s.cfg.JobPollDelayHint
	}
	s.registry.Watch(ctx, res.JobID, jobs.Interval(hint))
	s.logger.Info("bulk send started",
		zap.String("job", res.JobID),
		zap.Int("sessions", len(req.Sessions)))
	return res.JobID, nil
}

// WatchJob follows an already-running job up close, with the tighter
// detail cadence.
func (s *Service) WatchJob(ctx context.Context, jobID string) *jobs.Poller {
	return s.registry.Watch(ctx, jobID, jobs.DetailInterval(s.cfg.JobPollDelayHint))
}

// ListJobs reads the company's bulk-job history.
func (s *Service) ListJobs(ctx context.Context) ([]waha.BulkJob, error) {
	return s.client.ListJobs(ctx)
}

// CancelBulkJob requests cancellation of a bulk job. A watched job's
// poller keeps following it; the backend decides when it is actually
// over.
func (s *Service) CancelBulkJob(ctx context.Context, jobID string) error {
	if p := s.registry.Get(jobID); p != nil {
		return p.Cancel(ctx)
	}
	// Not watched locally; issue the mutation directly.
	return s.client.CancelJob(ctx, jobID)
}
