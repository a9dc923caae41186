package insight

import "math"

// JobReliability tallies retry and failure outcomes for one job across a
// type's member runs.
type JobReliability struct {
	TotalExecutions  int
	FlakyRetries     int
	FlakyLinks       []string
	FailedExecutions int
	FailedLinks      []string
}

// FlakinessRate is the share of all executions that were superseded retries.
func (r *JobReliability) FlakinessRate() float64 {
	return rate(r.FlakyRetries, r.TotalExecutions)
}

// FailureRate is the share of executions belonging to runs whose terminal
// attempt failed. Both rates can be nonzero at once: a job can retry
// repeatedly and still end in failure.
func (r *JobReliability) FailureRate() float64 {
	return rate(r.FailedExecutions, r.TotalExecutions)
}

// analyzeReliability classifies every attempt across the member runs. Each
// non-terminal attempt is a flaky retry regardless of the run's eventual
// outcome; a run whose terminal attempt failed counts one failed execution.
// Both carry deep links for the report.
func analyzeReliability(members []MemberRun, links LinkBuilder) map[string]*JobReliability {
	reliability := make(map[string]*JobReliability)
	for _, member := range members {
		for name, outcome := range member.Outcomes {
			job, ok := reliability[name]
			if !ok {
				job = &JobReliability{}
				reliability[name] = job
			}

			job.TotalExecutions += outcome.Attempts()
			for _, retry := range outcome.Retries {
				job.FlakyRetries++
				job.FlakyLinks = append(job.FlakyLinks, links.JobLink(retry.ID))
			}
			if outcome.Terminal.Status == StatusFailed {
				job.FailedExecutions++
				job.FailedLinks = append(job.FailedLinks, links.JobLink(outcome.Terminal.ID))
			}
		}
	}
	return reliability
}

// rate guards the zero denominator and rounds to two decimals for stable
// report output.
func rate(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(100 * float64(count) / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
