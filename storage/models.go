package storage

import "time"

// ReportRecord represents one stored insight collection
type ReportRecord struct {
	ID                 int        `json:"id"`
	Status             string     `json:"status"` // "running", "success", "failed"
	TargetName         string     `json:"target_name"`
	Provider           string     `json:"provider"`
	Project            string     `json:"project"`
	CollectedAt        time.Time  `json:"collected_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
	Duration           *string    `json:"duration,omitempty"`
	TotalPipelines     int        `json:"total_pipelines"`
	TotalPipelineTypes int        `json:"total_pipeline_types"`
	Payload            []byte     `json:"-"` // full report JSON, loaded on demand
}

// PipelineSnapshot represents one ingested pipeline within a report, kept for
// dashboard drill-down without re-parsing report payloads
type PipelineSnapshot struct {
	ID         int        `json:"id"`
	ReportID   int        `json:"report_id"`
	PipelineID string     `json:"pipeline_id"`
	Ref        string     `json:"ref"`
	Source     string     `json:"source"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	JobCount   int        `json:"job_count"`
}
