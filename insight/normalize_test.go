package insight

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRunSingleAttempt(t *testing.T) {
	run := makeRun("1", StatusSuccess, 0, 30, []string{"build"},
		makeAttempt("j1", "build", "build", StatusSuccess, 1, 0, 30),
	)

	outcomes, err := NormalizeRun(run)
	require.NoError(t, err)
	require.Contains(t, outcomes, "build")

	outcome := outcomes["build"]
	assert.Equal(t, "j1", outcome.Terminal.ID)
	assert.Empty(t, outcome.Retries)
	assert.Equal(t, 1, outcome.Attempts())
}

func TestNormalizeRunPicksHighestSequenceTerminal(t *testing.T) {
	run := makeRun("1", StatusSuccess, 0, 30, []string{"deploy"},
		// deliberately out of order to exercise the sort
		makeAttempt("j3", "deploy", "deploy", StatusSuccess, 3, 20, 30),
		makeAttempt("j1", "deploy", "deploy", StatusFailed, 1, 0, 10),
		makeAttempt("j2", "deploy", "deploy", StatusFailed, 2, 10, 20),
	)

	outcomes, err := NormalizeRun(run)
	require.NoError(t, err)

	outcome := outcomes["deploy"]
	assert.Equal(t, "j3", outcome.Terminal.ID)
	assert.Equal(t, 3, outcome.Attempts())
	require.Len(t, outcome.Retries, 2)
	assert.Equal(t, "j1", outcome.Retries[0].ID)
	assert.Equal(t, "j2", outcome.Retries[1].ID)
}

func TestNormalizeRunTrailingNonTerminalAttemptExcluded(t *testing.T) {
	run := makeRun("1", StatusRunning, 0, 0, []string{"deploy"},
		makeAttempt("j1", "deploy", "deploy", StatusFailed, 1, 0, 10),
		makeAttempt("j2", "deploy", "deploy", StatusRunning, 2, 10, 0),
	)

	outcomes, err := NormalizeRun(run)
	require.NoError(t, err)

	// The in-flight retry is neither terminal nor a superseded attempt yet.
	outcome := outcomes["deploy"]
	assert.Equal(t, "j1", outcome.Terminal.ID)
	assert.Empty(t, outcome.Retries)
}

func TestNormalizeRunSkipsJobsWithoutTerminalAttempt(t *testing.T) {
	run := makeRun("1", StatusRunning, 0, 0, []string{"build", "deploy"},
		makeAttempt("j1", "build", "build", StatusSuccess, 1, 0, 30),
		makeAttempt("j2", "deploy", "deploy", StatusRunning, 1, 30, 0),
	)

	outcomes, err := NormalizeRun(run)
	require.NoError(t, err)
	assert.Contains(t, outcomes, "build")
	assert.NotContains(t, outcomes, "deploy")
}

func TestNormalizeRunUndeclaredStage(t *testing.T) {
	run := makeRun("42", StatusSuccess, 0, 30, []string{"build"},
		makeAttempt("j1", "sneaky", "release", StatusSuccess, 1, 0, 30),
	)

	_, err := NormalizeRun(run)
	require.Error(t, err)

	var integrity *DataIntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.Equal(t, "42", integrity.Run)
	assert.Equal(t, "sneaky", integrity.Job)
}
