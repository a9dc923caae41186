package gitlab

import (
	"context"
	"log"
	"sort"
	"strconv"

	"cilens/insight"
)

// Provider collects pipeline execution traces for one GitLab project and
// hands them to the analysis engine as provider-agnostic runs.
type Provider struct {
	client  *Client
	baseURL string
	project string
}

// NewProvider builds a provider for a project on a GitLab instance.
func NewProvider(baseURL, project string, token Token) (*Provider, error) {
	client, err := NewClient(baseURL, token)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, baseURL: client.baseURL, project: project}, nil
}

// Links returns the deep-link formatter for this provider's project.
func (p *Provider) Links() Links {
	return Links{BaseURL: p.baseURL, Project: p.project}
}

// CollectRuns fetches up to limit completed pipelines with their full job
// attempt history. In-progress pipelines and pipelines without timestamps are
// skipped; analysis wants finished wall-clock data.
func (p *Provider) CollectRuns(ctx context.Context, limit int, ref string) ([]*insight.PipelineRun, error) {
	log.Printf("📥 Fetching up to %d pipelines for %s...", limit, p.project)

	summaries, err := p.client.ListPipelines(ctx, p.project, limit, ref)
	if err != nil {
		return nil, err
	}

	runs := make([]*insight.PipelineRun, 0, len(summaries))
	for _, summary := range summaries {
		if summary.Status != insight.StatusSuccess && summary.Status != insight.StatusFailed {
			continue
		}

		detail, err := p.client.GetPipeline(ctx, p.project, summary.ID)
		if err != nil {
			return nil, err
		}
		if detail.StartedAt == nil || detail.FinishedAt == nil {
			continue
		}

		jobs, err := p.client.ListJobs(ctx, p.project, summary.ID)
		if err != nil {
			return nil, err
		}

		runs = append(runs, buildRun(detail, jobs))
	}

	log.Printf("📥 Collected %d completed pipelines for %s", len(runs), p.project)
	return runs, nil
}

// buildRun maps GitLab payloads onto the engine's trace model. Attempt
// sequence numbers are assigned per job name in job-id order; the declared
// stage order is recovered from first appearance, since the REST API reports
// stages only through jobs.
func buildRun(detail *PipelineDetail, jobs []Job) *insight.PipelineRun {
	sorted := append([]Job(nil), jobs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var stages []string
	seenStage := make(map[string]bool)
	sequences := make(map[string]int)
	attempts := make([]insight.JobExecutionAttempt, 0, len(sorted))

	for _, job := range sorted {
		if !seenStage[job.Stage] {
			seenStage[job.Stage] = true
			stages = append(stages, job.Stage)
		}
		sequences[job.Name]++

		attempt := insight.JobExecutionAttempt{
			ID:       strconv.FormatInt(job.ID, 10),
			Name:     job.Name,
			Stage:    job.Stage,
			Status:   normalizeStatus(job.Status),
			Sequence: sequences[job.Name],
		}
		if job.StartedAt != nil {
			attempt.StartedAt = *job.StartedAt
		}
		if job.FinishedAt != nil {
			attempt.FinishedAt = *job.FinishedAt
		}
		attempts = append(attempts, attempt)
	}

	return &insight.PipelineRun{
		ID:         strconv.FormatInt(detail.ID, 10),
		Ref:        detail.Ref,
		Source:     detail.Source,
		Status:     normalizeStatus(detail.Status),
		StartedAt:  *detail.StartedAt,
		FinishedAt: *detail.FinishedAt,
		Stages:     stages,
		Jobs:       attempts,
	}
}

// normalizeStatus folds GitLab's status vocabulary onto the engine's.
// Anything that is neither finished nor canceled counts as still running.
func normalizeStatus(status string) string {
	switch status {
	case "success":
		return insight.StatusSuccess
	case "failed":
		return insight.StatusFailed
	case "canceled", "cancelled":
		return insight.StatusCanceled
	default:
		return insight.StatusRunning
	}
}
