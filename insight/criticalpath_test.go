package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lintBuildType models the canonical two-stage scenario: lint runs first and
// takes 30s, build depends on it and takes 60s.
func lintBuildType(t *testing.T) *PipelineType {
	t.Helper()
	build1 := makeAttempt("b1", "build", "build", StatusSuccess, 1, 30, 90)
	build1.Needs = []string{"lint"}
	build2 := makeAttempt("b2", "build", "build", StatusSuccess, 1, 130, 190)
	build2.Needs = []string{"lint"}

	return makeType(
		makeRun("1", StatusSuccess, 0, 90, []string{"lint", "build"},
			makeAttempt("l1", "lint", "lint", StatusSuccess, 1, 0, 30),
			build1,
		),
		makeRun("2", StatusSuccess, 100, 190, []string{"lint", "build"},
			makeAttempt("l2", "lint", "lint", StatusSuccess, 1, 100, 130),
			build2,
		),
	)
}

func TestCollectTimingsAverages(t *testing.T) {
	pt := lintBuildType(t)
	timings := collectTimings(pt.Members)

	assert.InDelta(t, 30.0, timings.avgDuration("lint"), 0.001)
	assert.InDelta(t, 60.0, timings.avgDuration("build"), 0.001)

	// Feedback is measured from the run's start, so build carries lint's wait.
	assert.InDelta(t, 30.0, timings.avgFeedback("lint"), 0.001)
	assert.InDelta(t, 90.0, timings.avgFeedback("build"), 0.001)
}

func TestFeedbackEqualsDurationWithoutPredecessors(t *testing.T) {
	pt := makeType(makeRun("1", StatusSuccess, 0, 45, []string{"build"},
		makeAttempt("a", "compile", "build", StatusSuccess, 1, 0, 45),
	))
	timings := collectTimings(pt.Members)

	assert.Equal(t, timings.avgDuration("compile"), timings.avgFeedback("compile"))
}

func TestCriticalPathEndsAtSlowestFeedback(t *testing.T) {
	pt := lintBuildType(t)
	graph, err := BuildDependencyGraph(pt)
	require.NoError(t, err)
	timings := collectTimings(pt.Members)

	jobs, duration := criticalPathJobs(graph, timings, pt.Jobs)
	assert.Equal(t, []string{"lint", "build"}, jobs)
	assert.InDelta(t, 90.0, duration, 0.001)
}

func TestCriticalPathEmptyWithoutJobs(t *testing.T) {
	graph := &DependencyGraph{direct: map[string][]string{}}
	jobs, duration := criticalPathJobs(graph, jobTimings{}, nil)
	assert.Nil(t, jobs)
	assert.Zero(t, duration)
}

func TestAvgFirstFeedback(t *testing.T) {
	pt := lintBuildType(t)

	// Lint is each run's first signal at 30s.
	assert.InDelta(t, 30.0, avgFirstFeedback(pt.Members), 0.001)
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"several", []float64{10, 20, 60}, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, mean(tt.values), 0.001)
		})
	}
}
