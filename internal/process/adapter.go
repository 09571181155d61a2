// internal/process/adapter.go
package process

import "time"

// JobStatus represents the lifecycle state of one input document.
// Skipped, Converted and Errored are terminal and mutually exclusive.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusSkipped   JobStatus = "skipped"
	JobStatusConverted JobStatus = "converted"
	JobStatusErrored   JobStatus = "errored"
)

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSkipped || s == JobStatusConverted || s == JobStatusErrored
}

// Job captures what the batch driver records about each file for the
// summary and the run report.
type Job struct {
	ID       string
	Source   string
	Output   string
	Status   JobStatus
	Reason   string
	Error    string
	Started  time.Time
	Finished time.Time
}

func NewJob(id, source string) *Job {
	return &Job{
		ID:      id,
		Source:  source,
		Status:  JobStatusPending,
		Started: time.Now(),
	}
}

// Duration is the wall time from creation until the job resolved.
func (j *Job) Duration() time.Duration {
	if j.Finished.IsZero() {
		return 0
	}
	return j.Finished.Sub(j.Started)
}

func MarkSkipped(j *Job, reason string) {
	if j.Status.Terminal() {
		return
	}
	j.Status = JobStatusSkipped
	j.Reason = reason
	j.Finished = time.Now()
}

func MarkConverted(j *Job, output string) {
	if j.Status.Terminal() {
		return
	}
	j.Status = JobStatusConverted
	j.Output = output
	j.Finished = time.Now()
}

func MarkErrored(j *Job, err error) {
	if j.Status.Terminal() {
		return
	}
	j.Status = JobStatusErrored
	if err != nil {
		j.Error = err.Error()
	}
	j.Finished = time.Now()
}
