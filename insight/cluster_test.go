package insight

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleRun(id, ref, source string, startOffset float64, jobs ...string) *PipelineRun {
	attempts := make([]JobExecutionAttempt, 0, len(jobs))
	for i, name := range jobs {
		attempts = append(attempts, makeAttempt(
			fmt.Sprintf("%s-%d", id, i), name, "build", StatusSuccess, 1,
			startOffset, startOffset+30,
		))
	}
	run := makeRun(id, StatusSuccess, startOffset, startOffset+60, []string{"build"}, attempts...)
	run.Ref = ref
	run.Source = source
	return run
}

func TestClusterRunsGroupsBySignature(t *testing.T) {
	runs := []*PipelineRun{
		simpleRun("1", "main", "push", 0, "build", "test"),
		simpleRun("2", "main", "schedule", 10, "test", "build"),
		simpleRun("3", "feature", "push", 20, "build", "test", "deploy"),
	}

	types, err := ClusterRuns(runs, 0, DefaultLabel)
	require.NoError(t, err)
	require.Len(t, types, 2)

	// Sorted by percentage descending.
	assert.Len(t, types[0].Members, 2)
	assert.InDelta(t, 66.67, round2(types[0].Percentage), 0.001)
	assert.Equal(t, []string{"build", "test"}, types[0].Jobs)
	assert.Equal(t, []string{"main"}, types[0].RefPatterns)
	assert.Equal(t, []string{"push", "schedule"}, types[0].Sources)

	assert.Len(t, types[1].Members, 1)
	assert.InDelta(t, 33.33, round2(types[1].Percentage), 0.001)
}

func TestClusterRunsMembersSumToTotal(t *testing.T) {
	var runs []*PipelineRun
	for i := 0; i < 7; i++ {
		runs = append(runs, simpleRun(fmt.Sprintf("%d", i), "main", "push", float64(i*10), "build", fmt.Sprintf("test-%d", i%3)))
	}

	types, err := ClusterRuns(runs, 0, DefaultLabel)
	require.NoError(t, err)

	members := 0
	for _, pt := range types {
		members += len(pt.Members)
	}
	assert.Equal(t, len(runs), members, "with no threshold every run belongs to exactly one type")
}

func TestClusterRunsThresholdDropsMinorityTypes(t *testing.T) {
	var runs []*PipelineRun
	for i := 0; i < 9; i++ {
		runs = append(runs, simpleRun(fmt.Sprintf("common-%d", i), "main", "push", float64(i*10), "build", "test"))
	}
	runs = append(runs, simpleRun("rare", "main", "push", 100, "build", "release"))

	types, err := ClusterRuns(runs, 15, DefaultLabel)
	require.NoError(t, err)
	require.Len(t, types, 1, "the 10 percent type falls below the 15 percent threshold")

	// Percentage is computed against all ten runs, before filtering.
	assert.InDelta(t, 90.0, types[0].Percentage, 0.001)
	assert.Len(t, types[0].Members, 9)
}

func TestClusterRunsSchemaFromEarliestMember(t *testing.T) {
	first := makeRun("1", StatusSuccess, 0, 60, []string{"lint", "build"},
		makeAttempt("a1", "check", "lint", StatusSuccess, 1, 0, 10),
	)
	later := makeRun("2", StatusSuccess, 100, 160, []string{"build", "lint"},
		makeAttempt("b1", "check", "lint", StatusSuccess, 1, 100, 110),
	)

	// Ingestion order must not matter.
	types, err := ClusterRuns([]*PipelineRun{later, first}, 0, DefaultLabel)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, []string{"lint", "build"}, types[0].Stages)
}

func TestClusterRunsExcludesMalformedRuns(t *testing.T) {
	good := simpleRun("1", "main", "push", 0, "build")
	bad := makeRun("2", StatusSuccess, 10, 40, []string{"build"},
		makeAttempt("x1", "ghost", "release", StatusSuccess, 1, 10, 20),
	)

	types, err := ClusterRuns([]*PipelineRun{good, bad}, 0, DefaultLabel)
	require.Error(t, err)

	var integrity *DataIntegrityError
	assert.True(t, errors.As(err, &integrity))

	// The good run still clusters; its percentage is measured against both.
	require.Len(t, types, 1)
	assert.Len(t, types[0].Members, 1)
	assert.InDelta(t, 50.0, types[0].Percentage, 0.001)
}
