package insight

import "time"

// Normalized CI statuses. Providers map their own vocabularies onto these.
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
	StatusRunning  = "running"
)

// JobExecutionAttempt is one try at running a named job within a pipeline run.
type JobExecutionAttempt struct {
	ID         string    `json:"id"` // provider identifier, used for deep links
	Name       string    `json:"name"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	Sequence   int       `json:"sequence"` // attempt number within the run, starting at 1
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// Needs holds the explicitly declared prerequisite job names.
	// nil means no declaration (stage ordering applies); an empty,
	// non-nil slice means the job explicitly declared no prerequisites.
	Needs []string `json:"needs,omitempty"`
}

// Terminal reports whether the attempt reached a final status.
func (a *JobExecutionAttempt) Terminal() bool {
	return a.Status == StatusSuccess || a.Status == StatusFailed
}

// DurationSeconds is the attempt's own wall-clock running time.
func (a *JobExecutionAttempt) DurationSeconds() float64 {
	if a.FinishedAt.IsZero() || a.StartedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt).Seconds()
}

// PipelineRun is one pipeline execution with its ordered job attempts.
// Runs are read-only inside the engine; analysis only derives new structures.
type PipelineRun struct {
	ID         string                `json:"id"`
	Ref        string                `json:"ref"`
	Source     string                `json:"source"`
	Status     string                `json:"status"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Stages     []string              `json:"stages"` // declared stage order
	Jobs       []JobExecutionAttempt `json:"jobs"`
}

// DurationSeconds is the run's wall-clock time from start to finish.
func (p *PipelineRun) DurationSeconds() float64 {
	if p.FinishedAt.IsZero() || p.StartedAt.IsZero() {
		return 0
	}
	return p.FinishedAt.Sub(p.StartedAt).Seconds()
}
