// pkg/schema/events.go
package schema

// JobStatus mirrors the terminal states of a job.
type JobStatus string

const (
	JobStatusConverted JobStatus = "converted"
	JobStatusSkipped   JobStatus = "skipped"
	JobStatusErrored   JobStatus = "errored"
)

// JobDone is published once per resolved job.
type JobDone struct {
	RunID            string    `json:"run_id"`
	JobID            string    `json:"job_id"`
	SourcePath       string    `json:"source_path"`
	OutputPath       string    `json:"output_path,omitempty"`
	Status           JobStatus `json:"status"`
	Reason           string    `json:"reason,omitempty"`
	Error            string    `json:"error,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	HappenedAt       int64     `json:"happened_at"`
}

// ReportEntry is one row of a run report.
type ReportEntry struct {
	JobID      string    `json:"job_id"`
	SourcePath string    `json:"source_path"`
	OutputPath string    `json:"output_path,omitempty"`
	Status     JobStatus `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// RunReport summarizes a whole run.
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  int64         `json:"started_at"`
	FinishedAt int64         `json:"finished_at"`
	Files      int           `json:"files"`
	Converted  int           `json:"converted"`
	Skipped    int           `json:"skipped"`
	Errored    int           `json:"errored"`
	Entries    []ReportEntry `json:"entries"`
}
