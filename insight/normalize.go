package insight

import (
	"fmt"
	"sort"
)

// JobOutcome is the terminal attempt of one job within one run together with
// the retry attempts that preceded it.
type JobOutcome struct {
	Terminal *JobExecutionAttempt
	Retries  []*JobExecutionAttempt
}

// Attempts counts the terminal attempt plus its retries.
func (o *JobOutcome) Attempts() int {
	return 1 + len(o.Retries)
}

// NormalizeRun groups a run's attempts by job name and selects each job's
// terminal attempt: the highest-sequence attempt that reached success or
// failure. Every earlier attempt for that job is a retry. Jobs whose attempts
// are all still pending produce no outcome and are excluded from this run's
// metrics, which only happens for in-progress pipelines.
func NormalizeRun(run *PipelineRun) (map[string]*JobOutcome, error) {
	declared := make(map[string]bool, len(run.Stages))
	for _, stage := range run.Stages {
		declared[stage] = true
	}

	byName := make(map[string][]*JobExecutionAttempt)
	for i := range run.Jobs {
		attempt := &run.Jobs[i]
		if !declared[attempt.Stage] {
			return nil, &DataIntegrityError{
				Run:    run.ID,
				Job:    attempt.Name,
				Reason: fmt.Sprintf("attempt references undeclared stage %q", attempt.Stage),
			}
		}
		byName[attempt.Name] = append(byName[attempt.Name], attempt)
	}

	outcomes := make(map[string]*JobOutcome, len(byName))
	for name, attempts := range byName {
		sort.SliceStable(attempts, func(i, j int) bool {
			if attempts[i].Sequence != attempts[j].Sequence {
				return attempts[i].Sequence < attempts[j].Sequence
			}
			return attempts[i].StartedAt.Before(attempts[j].StartedAt)
		})

		terminal := -1
		for i, attempt := range attempts {
			if attempt.Terminal() {
				terminal = i
			}
		}
		if terminal < 0 {
			continue
		}

		outcomes[name] = &JobOutcome{
			Terminal: attempts[terminal],
			Retries:  attempts[:terminal],
		}
	}

	return outcomes, nil
}
