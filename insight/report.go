package insight

import "time"

// LinkBuilder formats provider deep links for report output.
type LinkBuilder interface {
	PipelineLink(id string) string
	JobLink(id string) string
}

// Report is the engine's sole output artifact, handed to the report writer
// unchanged. Field names and nesting are part of the output contract.
type Report struct {
	Provider           string       `json:"provider"`
	Project            string       `json:"project"`
	CollectedAt        time.Time    `json:"collected_at"`
	TotalPipelines     int          `json:"total_pipelines"` // pre-filter count
	TotalPipelineTypes int          `json:"total_pipeline_types"`
	PipelineTypes      []TypeReport `json:"pipeline_types"`
}

// TypeReport is one pipeline type's block in the report.
type TypeReport struct {
	Label       string      `json:"label"`
	Stages      []string    `json:"stages"`
	RefPatterns []string    `json:"ref_patterns"`
	Sources     []string    `json:"sources"`
	Metrics     TypeMetrics `json:"metrics"`
}

// CountWithLinks pairs a count with the deep links backing it.
type CountWithLinks struct {
	Count int      `json:"count"`
	Links []string `json:"links"`
}

// TypeMetrics aggregates a pipeline type's run-level and job-level numbers.
type TypeMetrics struct {
	Percentage               float64        `json:"percentage"`
	TotalPipelines           int            `json:"total_pipelines"`
	SuccessfulPipelines      CountWithLinks `json:"successful_pipelines"`
	FailedPipelines          CountWithLinks `json:"failed_pipelines"`
	SuccessRate              float64        `json:"success_rate"`
	AvgDurationSeconds       float64        `json:"avg_duration_seconds"`
	AvgTimeToFeedbackSeconds float64        `json:"avg_time_to_feedback_seconds"`
	Jobs                     []JobMetrics   `json:"jobs"`
	CriticalPath             *CriticalPath  `json:"critical_path,omitempty"`
}

// CriticalPath is the longest-duration chain of dependent jobs ending at the
// type's slowest job, in stage order.
type CriticalPath struct {
	Jobs               []string `json:"jobs"`
	AvgDurationSeconds float64  `json:"avg_duration_seconds"`
}

// JobMetrics is one job's aggregated block within a pipeline type.
type JobMetrics struct {
	Name                     string         `json:"name"`
	AvgDurationSeconds       float64        `json:"avg_duration_seconds"`
	AvgTimeToFeedbackSeconds float64        `json:"avg_time_to_feedback_seconds"`
	Predecessors             []Predecessor  `json:"predecessors"`
	FlakinessRate            float64        `json:"flakiness_rate"`
	FlakyRetries             CountWithLinks `json:"flaky_retries"`
	FailedExecutions         CountWithLinks `json:"failed_executions"`
	FailureRate              float64        `json:"failure_rate"`
	TotalExecutions          int            `json:"total_executions"`
}

// Predecessor is one ancestor in a job's critical-path annotation, reported
// with its own average duration rather than a cumulative value.
type Predecessor struct {
	Name               string  `json:"name"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`
}
