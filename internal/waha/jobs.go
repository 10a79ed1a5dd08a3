package waha

import "context"

// SendTextMultiple starts a bulk send and returns the job handle.
func (c *Client) SendTextMultiple(ctx context.Context, req *BulkSendRequest) (*BulkSendResult, error) {
	var res BulkSendResult
	if err := c.postJSON(ctx, "/send-text-multiple", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListJobs returns all bulk jobs of the caller's company.
func (c *Client) ListJobs(ctx context.Context) ([]BulkJob, error) {
	var jobs []BulkJob
	if err := c.getJSON(ctx, "/jobs/", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob returns one bulk job by id.
func (c *Client) GetJob(ctx context.Context, id string) (*BulkJob, error) {
	var job BulkJob
	if err := c.getJSON(ctx, "/jobs/"+id, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// CancelJob requests cancellation of a running bulk job. The backend
// remains authoritative: callers follow up with GetJob rather than
// assuming the cancel took effect.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/job-cancel/"+id, nil, nil)
}
