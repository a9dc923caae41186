package insight

import (
	"fmt"
	"sort"
)

// DependencyGraph is the per-type job DAG. Nodes are the schema's job names,
// edges the direct depends-on relation. Built once per pipeline type and
// read-only thereafter; construction fails on cyclic declarations.
type DependencyGraph struct {
	jobs       []string
	direct     map[string][]string // direct predecessors, sorted
	stageOf    map[string]string
	stageIndex map[string]int
}

// BuildDependencyGraph resolves each job's direct predecessors. A job with
// explicit needs declarations on any member attempt uses the union of those
// declarations; every other job falls back to depending on all jobs of the
// immediately preceding stage in the schema's stage order. The first stage has
// no predecessors.
func BuildDependencyGraph(pt *PipelineType) (*DependencyGraph, error) {
	nodes := make(map[string]bool, len(pt.Jobs))
	for _, name := range pt.Jobs {
		nodes[name] = true
	}

	stageOf := make(map[string]string, len(pt.Jobs))
	explicit := make(map[string]map[string]bool)
	for _, member := range pt.Members {
		for name, outcome := range member.Outcomes {
			if _, ok := stageOf[name]; !ok {
				stageOf[name] = outcome.Terminal.Stage
			}
			for _, attempt := range append(outcome.Retries, outcome.Terminal) {
				if attempt.Needs == nil {
					continue
				}
				deps, ok := explicit[name]
				if !ok {
					deps = make(map[string]bool)
					explicit[name] = deps
				}
				for _, dep := range attempt.Needs {
					deps[dep] = true
				}
			}
		}
	}

	stageIndex := make(map[string]int, len(pt.Stages))
	for i, stage := range pt.Stages {
		stageIndex[stage] = i
	}

	jobsByStage := make(map[int][]string)
	for _, name := range pt.Jobs {
		idx := stageIndexOf(stageIndex, stageOf[name])
		jobsByStage[idx] = append(jobsByStage[idx], name)
	}

	direct := make(map[string][]string, len(pt.Jobs))
	for _, name := range pt.Jobs {
		deps, declared := explicit[name]
		if declared {
			for dep := range deps {
				if !nodes[dep] {
					return nil, &DataIntegrityError{
						Signature: pt.Signature,
						Job:       name,
						Reason:    fmt.Sprintf("declared dependency %q is not part of the pipeline", dep),
					}
				}
			}
			direct[name] = sortedKeys(deps)
			continue
		}

		idx := stageIndexOf(stageIndex, stageOf[name])
		if idx == 0 {
			direct[name] = nil
			continue
		}
		preceding := append([]string(nil), jobsByStage[idx-1]...)
		sort.Strings(preceding)
		direct[name] = preceding
	}

	graph := &DependencyGraph{
		jobs:       pt.Jobs,
		direct:     direct,
		stageOf:    stageOf,
		stageIndex: stageIndex,
	}
	if job, cyclic := graph.findCycle(); cyclic {
		return nil, &DataIntegrityError{
			Signature: pt.Signature,
			Job:       job,
			Reason:    "dependency declarations form a cycle",
		}
	}
	return graph, nil
}

// stageIndexOf treats a stage missing from the schema as the first stage, the
// same leniency providers apply to partially-reported runs.
func stageIndexOf(stageIndex map[string]int, stage string) int {
	if idx, ok := stageIndex[stage]; ok {
		return idx
	}
	return 0
}

// DirectPredecessors returns the jobs that job directly depends on.
func (g *DependencyGraph) DirectPredecessors(job string) []string {
	return g.direct[job]
}

// Ancestors returns every job reachable by following depends-on edges from
// job, deduplicated and ordered by ascending stage position (ties by name).
// This is the full "what must finish before this job can start" set, at every
// depth, flattened.
func (g *DependencyGraph) Ancestors(job string) []string {
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		for _, pred := range g.direct[name] {
			if seen[pred] {
				continue
			}
			seen[pred] = true
			visit(pred)
		}
	}
	visit(job)

	ancestors := make([]string, 0, len(seen))
	for name := range seen {
		ancestors = append(ancestors, name)
	}
	sort.Slice(ancestors, func(i, j int) bool {
		si := stageIndexOf(g.stageIndex, g.stageOf[ancestors[i]])
		sj := stageIndexOf(g.stageIndex, g.stageOf[ancestors[j]])
		if si != sj {
			return si < sj
		}
		return ancestors[i] < ancestors[j]
	})
	return ancestors
}

// findCycle runs Kahn's algorithm; any node left unprocessed sits on a cycle.
// Returns the lexicographically smallest such job for a stable error message.
func (g *DependencyGraph) findCycle() (string, bool) {
	indegree := make(map[string]int, len(g.jobs))
	dependents := make(map[string][]string, len(g.jobs))
	for _, job := range g.jobs {
		indegree[job] = len(g.direct[job])
		for _, pred := range g.direct[job] {
			dependents[pred] = append(dependents[pred], job)
		}
	}

	queue := make([]string, 0, len(g.jobs))
	for _, job := range g.jobs {
		if indegree[job] == 0 {
			queue = append(queue, job)
		}
	}

	processed := 0
	for len(queue) > 0 {
		job := queue[0]
		queue = queue[1:]
		processed++
		for _, dependent := range dependents[job] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if processed == len(g.jobs) {
		return "", false
	}
	remaining := ""
	for _, job := range g.jobs {
		if indegree[job] > 0 && (remaining == "" || job < remaining) {
			remaining = job
		}
	}
	return remaining, true
}
