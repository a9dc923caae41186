package gitlab

import (
	"fmt"
	"strings"
)

// Links formats GitLab deep links for report output.
type Links struct {
	BaseURL string
	Project string
}

// PipelineLink builds the web URL for a pipeline.
func (l Links) PipelineLink(id string) string {
	return fmt.Sprintf("%s/%s/-/pipelines/%s", strings.TrimRight(l.BaseURL, "/"), l.Project, numericID(id))
}

// JobLink builds the web URL for a job.
func (l Links) JobLink(id string) string {
	return fmt.Sprintf("%s/%s/-/jobs/%s", strings.TrimRight(l.BaseURL, "/"), l.Project, numericID(id))
}

// numericID extracts the numeric identifier from a GraphQL GID such as
// gid://gitlab/Ci::Job/456. Plain numeric ids pass through unchanged.
func numericID(id string) string {
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
