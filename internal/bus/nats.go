// internal/bus/nats.go
package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tendant/simple-searchable-pdf/internal/process"
	"github.com/tendant/simple-searchable-pdf/pkg/schema"
)

// DefaultSubject receives one schema.JobDone per resolved job.
const DefaultSubject = "searchable-pdf.jobs.done"

const flushTimeout = 5 * time.Second

type Client struct {
	nc      *nats.Conn
	subject string
}

func Connect(url, subject string) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.Name("searchable-pdf"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &Client{nc: nc, subject: subject}, nil
}

func (c *Client) Close() {
	if c.nc != nil {
		_ = c.nc.Drain()
	}
}

func (c *Client) PublishJSON(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.nc.Publish(subject, b)
}

// JobDone publishes the outcome of job and waits until the server has seen
// it or ctx ends.
func (c *Client) JobDone(ctx context.Context, runID string, job *process.Job) error {
	if err := c.PublishJSON(c.subject, JobDoneEvent(runID, job)); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	return c.nc.FlushWithContext(ctx)
}

// JobDoneEvent converts a resolved job into its wire form.
func JobDoneEvent(runID string, job *process.Job) schema.JobDone {
	return schema.JobDone{
		RunID:            runID,
		JobID:            job.ID,
		SourcePath:       job.Source,
		OutputPath:       job.Output,
		Status:           schema.JobStatus(job.Status),
		Reason:           job.Reason,
		Error:            job.Error,
		ProcessingTimeMs: job.Duration().Milliseconds(),
		HappenedAt:       job.Finished.Unix(),
	}
}
