package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeReliabilityFlakyThenSuccess(t *testing.T) {
	pt := makeType(makeRun("1", StatusSuccess, 0, 30, []string{"deploy"},
		makeAttempt("j1", "deploy", "deploy", StatusFailed, 1, 0, 10),
		makeAttempt("j2", "deploy", "deploy", StatusFailed, 2, 10, 20),
		makeAttempt("j3", "deploy", "deploy", StatusSuccess, 3, 20, 30),
	))

	reliability := analyzeReliability(pt.Members, testLinks{})
	job := reliability["deploy"]
	require.NotNil(t, job)

	assert.Equal(t, 3, job.TotalExecutions)
	assert.Equal(t, 2, job.FlakyRetries)
	assert.Equal(t, []string{
		"https://gitlab.example.com/group/app/-/jobs/j1",
		"https://gitlab.example.com/group/app/-/jobs/j2",
	}, job.FlakyLinks)

	// The terminal attempt succeeded, so nothing counts as failed.
	assert.Equal(t, 0, job.FailedExecutions)
	assert.Empty(t, job.FailedLinks)

	assert.InDelta(t, 66.67, job.FlakinessRate(), 0.001)
	assert.Zero(t, job.FailureRate())
}

func TestAnalyzeReliabilityTerminalFailure(t *testing.T) {
	pt := makeType(makeRun("1", StatusFailed, 0, 20, []string{"deploy"},
		makeAttempt("j1", "deploy", "deploy", StatusFailed, 1, 0, 10),
		makeAttempt("j2", "deploy", "deploy", StatusFailed, 2, 10, 20),
	))

	reliability := analyzeReliability(pt.Members, testLinks{})
	job := reliability["deploy"]
	require.NotNil(t, job)

	// The superseded attempt is flaky AND the job ultimately failed.
	assert.Equal(t, 2, job.TotalExecutions)
	assert.Equal(t, 1, job.FlakyRetries)
	assert.Equal(t, 1, job.FailedExecutions)
	assert.Equal(t, []string{"https://gitlab.example.com/group/app/-/jobs/j2"}, job.FailedLinks)
	assert.InDelta(t, 50.0, job.FlakinessRate(), 0.001)
	assert.InDelta(t, 50.0, job.FailureRate(), 0.001)
}

func TestAnalyzeReliabilityAcrossRuns(t *testing.T) {
	pt := makeType(
		makeRun("1", StatusSuccess, 0, 30, []string{"build"},
			makeAttempt("a1", "build", "build", StatusSuccess, 1, 0, 30),
		),
		makeRun("2", StatusFailed, 100, 130, []string{"build"},
			makeAttempt("a2", "build", "build", StatusFailed, 1, 100, 130),
		),
	)

	reliability := analyzeReliability(pt.Members, testLinks{})
	job := reliability["build"]
	require.NotNil(t, job)

	assert.Equal(t, 2, job.TotalExecutions)
	assert.Zero(t, job.FlakyRetries)
	assert.Equal(t, 1, job.FailedExecutions)
	assert.InDelta(t, 50.0, job.FailureRate(), 0.001)
}

func TestRateBounds(t *testing.T) {
	tests := []struct {
		name  string
		count int
		total int
		want  float64
	}{
		{"zero total", 3, 0, 0},
		{"zero count", 0, 10, 0},
		{"all", 10, 10, 100},
		{"two thirds rounds", 2, 3, 66.67},
		{"one third rounds", 1, 3, 33.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rate(tt.count, tt.total)
			assert.InDelta(t, tt.want, got, 0.001)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}
