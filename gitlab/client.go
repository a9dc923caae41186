package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	userAgent      = "cilens/0.1.0"
	maxPerPage     = 100
	requestTimeout = 30 * time.Second
)

// Client talks to the GitLab REST API v4.
type Client struct {
	http    *http.Client
	baseURL string
	token   Token
}

// NewClient validates the instance URL and builds an API client.
func NewClient(baseURL string, token Token) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: baseURL,
		token:   token,
	}, nil
}

// PipelineSummary is one entry of the pipeline list endpoint.
type PipelineSummary struct {
	ID     int64  `json:"id"`
	Ref    string `json:"ref"`
	Source string `json:"source"`
	Status string `json:"status"`
}

// PipelineDetail is the single-pipeline endpoint payload, which carries the
// timestamps the list endpoint omits.
type PipelineDetail struct {
	ID         int64      `json:"id"`
	Ref        string     `json:"ref"`
	Source     string     `json:"source"`
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Duration   *float64   `json:"duration"`
}

// Job is one job attempt as reported by the jobs endpoint. With
// include_retried the endpoint returns every attempt, not just the latest.
type Job struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Stage      string     `json:"stage"`
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Duration   *float64   `json:"duration"`
}

// ListPipelines fetches up to limit pipelines for the project, newest first,
// optionally filtered by ref.
func (c *Client) ListPipelines(ctx context.Context, project string, limit int, ref string) ([]PipelineSummary, error) {
	// The page size stays constant across pages: GitLab offsets by
	// (page-1)*per_page, so shrinking it mid-walk would re-fetch rows.
	perPage := min(limit, maxPerPage)

	var pipelines []PipelineSummary
	for page := 1; len(pipelines) < limit; page++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(perPage)},
		}
		if ref != "" {
			query.Set("ref", ref)
		}

		var batch []PipelineSummary
		err := c.get(ctx, c.projectPath(project, "pipelines"), query, &batch)
		if err != nil {
			return nil, fmt.Errorf("failed to list pipelines: %w", err)
		}
		pipelines = append(pipelines, batch...)
		if len(batch) < perPage {
			break
		}
	}
	if len(pipelines) > limit {
		pipelines = pipelines[:limit]
	}
	return pipelines, nil
}

// GetPipeline fetches a single pipeline's detail record.
func (c *Client) GetPipeline(ctx context.Context, project string, pipelineID int64) (*PipelineDetail, error) {
	var detail PipelineDetail
	path := c.projectPath(project, fmt.Sprintf("pipelines/%d", pipelineID))
	if err := c.get(ctx, path, nil, &detail); err != nil {
		return nil, fmt.Errorf("failed to get pipeline %d: %w", pipelineID, err)
	}
	return &detail, nil
}

// ListJobs fetches every job attempt of a pipeline, retried attempts included.
func (c *Client) ListJobs(ctx context.Context, project string, pipelineID int64) ([]Job, error) {
	var jobs []Job
	for page := 1; ; page++ {
		query := url.Values{
			"page":            {strconv.Itoa(page)},
			"per_page":        {strconv.Itoa(maxPerPage)},
			"include_retried": {"true"},
		}

		var batch []Job
		path := c.projectPath(project, fmt.Sprintf("pipelines/%d/jobs", pipelineID))
		if err := c.get(ctx, path, query, &batch); err != nil {
			return nil, fmt.Errorf("failed to list jobs for pipeline %d: %w", pipelineID, err)
		}
		jobs = append(jobs, batch...)
		if len(batch) < maxPerPage {
			break
		}
	}
	return jobs, nil
}

func (c *Client) projectPath(project, suffix string) string {
	return fmt.Sprintf("/api/v4/projects/%s/%s", url.PathEscape(project), suffix)
}

// get performs an authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if !c.token.Empty() {
		req.Header.Set("Authorization", "Bearer "+c.token.value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
