package insight

// jobTimings aggregates observed wall-clock data per job across a type's
// member runs. Time-to-feedback is deliberately measured from real timestamps
// rather than reconstructed from the dependency graph: actual execution
// reflects scheduling and runner contention the graph cannot model.
type jobTimings map[string]*jobTiming

type jobTiming struct {
	durations []float64 // terminal finish - terminal start, per contributing run
	feedbacks []float64 // terminal finish - run start, per contributing run
}

// collectTimings gathers per-job duration and time-to-feedback samples from
// every member run that produced a terminal outcome for the job.
func collectTimings(members []MemberRun) jobTimings {
	timings := make(jobTimings)
	for _, member := range members {
		for name, outcome := range member.Outcomes {
			timing, ok := timings[name]
			if !ok {
				timing = &jobTiming{}
				timings[name] = timing
			}
			timing.durations = append(timing.durations, outcome.Terminal.DurationSeconds())
			timing.feedbacks = append(timing.feedbacks, outcome.Terminal.FinishedAt.Sub(member.Run.StartedAt).Seconds())
		}
	}
	return timings
}

func (t jobTimings) avgDuration(job string) float64 {
	timing, ok := t[job]
	if !ok {
		return 0
	}
	return mean(timing.durations)
}

func (t jobTimings) avgFeedback(job string) float64 {
	timing, ok := t[job]
	if !ok {
		return 0
	}
	return mean(timing.feedbacks)
}

// criticalPathJobs picks the job with the highest average time-to-feedback as
// the chain's terminal node and reports its full ancestor chain plus itself,
// in stage order. The chain's duration is that job's average time-to-feedback.
func criticalPathJobs(graph *DependencyGraph, timings jobTimings, jobs []string) ([]string, float64) {
	terminal := ""
	best := 0.0
	for _, job := range jobs {
		feedback := timings.avgFeedback(job)
		if terminal == "" || feedback > best || (feedback == best && job < terminal) {
			terminal = job
			best = feedback
		}
	}
	if terminal == "" {
		return nil, 0
	}
	return append(graph.Ancestors(terminal), terminal), best
}

// avgFirstFeedback averages, per member run, the earliest terminal job
// completion relative to the run's start: how long the run takes to produce
// its first signal.
func avgFirstFeedback(members []MemberRun) float64 {
	var firsts []float64
	for _, member := range members {
		first := 0.0
		found := false
		for _, outcome := range member.Outcomes {
			feedback := outcome.Terminal.FinishedAt.Sub(member.Run.StartedAt).Seconds()
			if !found || feedback < first {
				first = feedback
				found = true
			}
		}
		if found {
			firsts = append(firsts, first)
		}
	}
	return mean(firsts)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
