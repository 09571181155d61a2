// Package batch runs the pipeline over every input, one document at a time,
// and keeps the run totals.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-searchable-pdf/internal/pipeline"
	"github.com/tendant/simple-searchable-pdf/internal/process"
)

// Processor converts a single document.
type Processor interface {
	Process(ctx context.Context, workDir, source string) pipeline.Result
}

// Notifier is told about every resolved job.
type Notifier interface {
	JobDone(ctx context.Context, runID string, job *process.Job) error
}

// Options controls the driver.
type Options struct {
	ContinueAfterError bool
	// OnFatal runs after a job fails fatally, before the driver decides
	// whether to go on. Used for the interactive pause.
	OnFatal func(job *process.Job)
}

// Result accumulates the outcome of a run.
type Result struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Files     int
	Converted int
	Skipped   int
	Errored   int
	Jobs      []*process.Job
}

// Add merges one resolved job into the totals.
func (r *Result) Add(job *process.Job) {
	r.Files++
	switch job.Status {
	case process.JobStatusConverted:
		r.Converted++
	case process.JobStatusSkipped:
		r.Skipped++
	default:
		r.Errored++
	}
	r.Jobs = append(r.Jobs, job)
}

// WriteSummary prints the end of run totals.
func (r Result) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintf(w, "\nFiles:     %d\nConverted: %d\nSkipped:   %d\nErrors:    %d\n",
		r.Files, r.Converted, r.Skipped, r.Errored)
	return err
}

// Driver owns the working directory for the duration of a run.
type Driver struct {
	proc     Processor
	work     *WorkDir
	notifier Notifier
	opts     Options
	logger   *slog.Logger
}

// NewDriver creates a driver. notifier may be nil.
func NewDriver(proc Processor, work *WorkDir, notifier Notifier, opts Options, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{proc: proc, work: work, notifier: notifier, opts: opts, logger: logger}
}

// Run processes inputs in order. The returned error is non-nil when the run
// stopped early: a fatal job with continue-after-error off, or ctx ending.
// The Result always covers every job that was attempted.
func (d *Driver) Run(ctx context.Context, inputs []string) (Result, error) {
	res := Result{RunID: uuid.NewString(), Started: time.Now()}

	d.logger.Info("run started", "run_id", res.RunID, "files", len(inputs), "work_dir", d.work.Path())
	for _, source := range inputs {
		if err := ctx.Err(); err != nil {
			res.Finished = time.Now()
			return res, fmt.Errorf("run interrupted: %w", err)
		}

		job := process.NewJob(uuid.NewString(), source)
		logger := d.logger.With("job_id", job.ID, "file", source)

		r := d.processOne(ctx, source)
		switch r.Outcome {
		case pipeline.Converted:
			process.MarkConverted(job, r.Output)
		case pipeline.Skipped:
			process.MarkSkipped(job, "already searchable")
		default:
			process.MarkErrored(job, r.Err)
			logger.Error("job failed", "outcome", r.Outcome.String(), "err", r.Err)
		}
		res.Add(job)
		d.notify(ctx, res.RunID, job, logger)

		if !r.Fatal() {
			continue
		}
		if d.opts.OnFatal != nil {
			d.opts.OnFatal(job)
		}
		if ctx.Err() != nil {
			res.Finished = time.Now()
			return res, fmt.Errorf("run interrupted: %w", ctx.Err())
		}
		if !d.opts.ContinueAfterError {
			res.Finished = time.Now()
			return res, fmt.Errorf("stopped after %s: %w", source, r.Err)
		}
	}

	res.Finished = time.Now()
	d.logger.Info("run finished", "run_id", res.RunID,
		"files", res.Files, "converted", res.Converted, "skipped", res.Skipped, "errors", res.Errored)
	return res, nil
}

func (d *Driver) processOne(ctx context.Context, source string) pipeline.Result {
	if err := d.work.Clear(); err != nil {
		return pipeline.Result{Outcome: pipeline.Failed, Err: err}
	}
	return d.proc.Process(ctx, d.work.Path(), source)
}

func (d *Driver) notify(ctx context.Context, runID string, job *process.Job, logger *slog.Logger) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.JobDone(ctx, runID, job); err != nil {
		logger.Warn("publish job event failed", "err", err)
	}
}
