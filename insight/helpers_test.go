package insight

import (
	"time"
)

var testStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// makeAttempt builds one job attempt offset in seconds from testStart.
func makeAttempt(id, name, stage, status string, seq int, startOffset, finishOffset float64) JobExecutionAttempt {
	return JobExecutionAttempt{
		ID:        id,
		Name:      name,
		Stage:     stage,
		Status:    status,
		Sequence:  seq,
		StartedAt: testStart.Add(time.Duration(startOffset * float64(time.Second))),
		FinishedAt: testStart.Add(
			time.Duration(finishOffset * float64(time.Second)),
		),
	}
}

// makeRun builds a completed pipeline run offset in seconds from testStart.
func makeRun(id, status string, startOffset, finishOffset float64, stages []string, jobs ...JobExecutionAttempt) *PipelineRun {
	return &PipelineRun{
		ID:         id,
		Ref:        "main",
		Source:     "push",
		Status:     status,
		StartedAt:  testStart.Add(time.Duration(startOffset * float64(time.Second))),
		FinishedAt: testStart.Add(time.Duration(finishOffset * float64(time.Second))),
		Stages:     stages,
		Jobs:       jobs,
	}
}

// makeType clusters the given runs with no threshold and returns the first type.
func makeType(runs ...*PipelineRun) *PipelineType {
	types, err := ClusterRuns(runs, 0, DefaultLabel)
	if err != nil || len(types) == 0 {
		panic("makeType: clustering failed")
	}
	return types[0]
}

// testLinks is a deterministic LinkBuilder for assertions.
type testLinks struct{}

func (testLinks) PipelineLink(id string) string {
	return "https://gitlab.example.com/group/app/-/pipelines/" + id
}

func (testLinks) JobLink(id string) string {
	return "https://gitlab.example.com/group/app/-/jobs/" + id
}
