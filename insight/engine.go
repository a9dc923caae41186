package insight

import (
	"errors"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Input is the immutable trace snapshot an analysis runs over. The engine
// never mutates the runs, it only derives aggregate structures from them.
type Input struct {
	Provider    string
	Project     string
	CollectedAt time.Time
	Runs        []*PipelineRun
	Links       LinkBuilder
}

// Config tunes the analysis. The zero value is not valid on its own; use
// DefaultConfig as the baseline.
type Config struct {
	// MinTypePercentage drops pipeline types whose share of all ingested
	// runs falls below it. Expressed in percent, valid range [0,100].
	MinTypePercentage float64
	// Label overrides the display-label heuristic. DefaultLabel when nil.
	Label LabelFunc
	// Workers caps concurrent per-type analyses. NumCPU when <= 0.
	Workers int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{MinTypePercentage: 1.0}
}

// Analyze clusters the ingested runs into pipeline types and computes each
// surviving type's insight block. Zero runs is a valid answer, not an error:
// the report simply shows zero pipelines. A type whose trace data fails an
// integrity check is omitted from the report and its error joined into the
// returned error, so callers can decide whether a partial report is usable.
func Analyze(input Input, cfg Config) (*Report, error) {
	if cfg.MinTypePercentage < 0 || cfg.MinTypePercentage > 100 {
		return nil, &ConfigurationError{
			Field:  "min_type_percentage",
			Value:  cfg.MinTypePercentage,
			Reason: "must be between 0 and 100",
		}
	}
	label := cfg.Label
	if label == nil {
		label = DefaultLabel
	}
	links := input.Links
	if links == nil {
		links = noLinks{}
	}

	report := &Report{
		Provider:       input.Provider,
		Project:        input.Project,
		CollectedAt:    input.CollectedAt,
		TotalPipelines: len(input.Runs),
		PipelineTypes:  []TypeReport{},
	}
	if len(input.Runs) == 0 {
		return report, nil
	}

	types, clusterErr := ClusterRuns(input.Runs, cfg.MinTypePercentage, label)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Per-type analysis has no cross-type data dependency; fan out and
	// merge at the assembler boundary.
	blocks := make([]*TypeReport, len(types))
	typeErrs := make([]error, len(types))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, pt := range types {
		wg.Add(1)
		go func(i int, pt *PipelineType) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			blocks[i], typeErrs[i] = analyzeType(pt, links)
		}(i, pt)
	}
	wg.Wait()

	errs := []error{clusterErr}
	for i, block := range blocks {
		if typeErrs[i] != nil {
			errs = append(errs, typeErrs[i])
			continue
		}
		report.PipelineTypes = append(report.PipelineTypes, *block)
	}
	report.TotalPipelineTypes = len(report.PipelineTypes)

	return report, errors.Join(errs...)
}

// analyzeType assembles one pipeline type's report block.
func analyzeType(pt *PipelineType, links LinkBuilder) (*TypeReport, error) {
	graph, err := BuildDependencyGraph(pt)
	if err != nil {
		return nil, err
	}

	timings := collectTimings(pt.Members)
	reliability := analyzeReliability(pt.Members, links)

	var successLinks, failLinks []string
	successes, failures := 0, 0
	var runDurations []float64
	for _, member := range pt.Members {
		runDurations = append(runDurations, member.Run.DurationSeconds())
		switch member.Run.Status {
		case StatusSuccess:
			successes++
			successLinks = append(successLinks, links.PipelineLink(member.Run.ID))
		case StatusFailed:
			failures++
			failLinks = append(failLinks, links.PipelineLink(member.Run.ID))
		}
	}

	jobs := make([]JobMetrics, 0, len(pt.Jobs))
	for _, name := range pt.Jobs {
		jobs = append(jobs, buildJobMetrics(name, graph, timings, reliability[name]))
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].AvgTimeToFeedbackSeconds != jobs[j].AvgTimeToFeedbackSeconds {
			return jobs[i].AvgTimeToFeedbackSeconds > jobs[j].AvgTimeToFeedbackSeconds
		}
		return jobs[i].Name < jobs[j].Name
	})

	metrics := TypeMetrics{
		Percentage:               round2(pt.Percentage),
		TotalPipelines:           len(pt.Members),
		SuccessfulPipelines:      CountWithLinks{Count: successes, Links: emptyNotNil(successLinks)},
		FailedPipelines:          CountWithLinks{Count: failures, Links: emptyNotNil(failLinks)},
		SuccessRate:              rate(successes, len(pt.Members)),
		AvgDurationSeconds:       mean(runDurations),
		AvgTimeToFeedbackSeconds: avgFirstFeedback(pt.Members),
		Jobs:                     jobs,
	}
	if pathJobs, pathDuration := criticalPathJobs(graph, timings, pt.Jobs); len(pathJobs) > 0 {
		metrics.CriticalPath = &CriticalPath{Jobs: pathJobs, AvgDurationSeconds: pathDuration}
	}

	return &TypeReport{
		Label:       pt.Label,
		Stages:      pt.Stages,
		RefPatterns: pt.RefPatterns,
		Sources:     pt.Sources,
		Metrics:     metrics,
	}, nil
}

func buildJobMetrics(name string, graph *DependencyGraph, timings jobTimings, reliability *JobReliability) JobMetrics {
	predecessors := []Predecessor{}
	for _, ancestor := range graph.Ancestors(name) {
		predecessors = append(predecessors, Predecessor{
			Name:               ancestor,
			AvgDurationSeconds: timings.avgDuration(ancestor),
		})
	}

	if reliability == nil {
		reliability = &JobReliability{}
	}
	return JobMetrics{
		Name:                     name,
		AvgDurationSeconds:       timings.avgDuration(name),
		AvgTimeToFeedbackSeconds: timings.avgFeedback(name),
		Predecessors:             predecessors,
		FlakinessRate:            reliability.FlakinessRate(),
		FlakyRetries:             CountWithLinks{Count: reliability.FlakyRetries, Links: emptyNotNil(reliability.FlakyLinks)},
		FailedExecutions:         CountWithLinks{Count: reliability.FailedExecutions, Links: emptyNotNil(reliability.FailedLinks)},
		FailureRate:              reliability.FailureRate(),
		TotalExecutions:          reliability.TotalExecutions,
	}
}

// emptyNotNil keeps link arrays as [] instead of null in JSON output.
func emptyNotNil(links []string) []string {
	if links == nil {
		return []string{}
	}
	return links
}

// noLinks is used when the caller provides no deep-link formatter.
type noLinks struct{}

func (noLinks) PipelineLink(string) string { return "" }
func (noLinks) JobLink(string) string      { return "" }
