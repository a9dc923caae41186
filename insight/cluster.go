package insight

import (
	"errors"
	"sort"
)

// MemberRun pairs a contributing run with its normalized job outcomes.
type MemberRun struct {
	Run      *PipelineRun
	Outcomes map[string]*JobOutcome
}

// PipelineType is a cluster of runs sharing a job-name signature. It is built
// once per report and read-only afterwards.
type PipelineType struct {
	Signature   Signature
	Label       string
	Jobs        []string // sorted, deduplicated job names backing the signature
	Stages      []string // ordered stage schema, taken from the earliest-started member
	RefPatterns []string
	Sources     []string
	Percentage  float64 // share of all ingested runs, computed before filtering
	Members     []MemberRun
}

// ClusterRuns normalizes and groups runs into pipeline types. Percentages are
// computed against the full ingested run count, so the surviving set need not
// sum to 100; candidates below minPercentage are dropped entirely rather than
// merged into a catch-all bucket. Runs that fail normalization are excluded
// from clustering and their errors joined into the returned error.
func ClusterRuns(runs []*PipelineRun, minPercentage float64, label LabelFunc) ([]*PipelineType, error) {
	total := len(runs)

	groups := make(map[Signature]*PipelineType)
	var integrity []error

	for _, run := range runs {
		outcomes, err := NormalizeRun(run)
		if err != nil {
			integrity = append(integrity, err)
			continue
		}

		names := outcomeJobNames(outcomes)
		sig := BuildSignature(names)

		group, ok := groups[sig]
		if !ok {
			group = &PipelineType{Signature: sig, Jobs: names}
			groups[sig] = group
		}
		group.Members = append(group.Members, MemberRun{Run: run, Outcomes: outcomes})
	}

	types := make([]*PipelineType, 0, len(groups))
	for _, group := range groups {
		group.Percentage = 100 * float64(len(group.Members)) / float64(max(total, 1))
		if group.Percentage < minPercentage {
			continue
		}

		group.Label = label(group.Jobs)
		group.Stages = schemaStages(group.Members)
		group.RefPatterns, group.Sources = memberCharacteristics(group.Members)
		types = append(types, group)
	}

	sort.Slice(types, func(i, j int) bool {
		if types[i].Percentage != types[j].Percentage {
			return types[i].Percentage > types[j].Percentage
		}
		return types[i].Label < types[j].Label
	})

	return types, errors.Join(integrity...)
}

// schemaStages picks the ordered stage list of the earliest-started member so
// the schema is deterministic regardless of ingestion order.
func schemaStages(members []MemberRun) []string {
	earliest := 0
	for i := 1; i < len(members); i++ {
		if members[i].Run.StartedAt.Before(members[earliest].Run.StartedAt) {
			earliest = i
		}
	}
	return members[earliest].Run.Stages
}

// memberCharacteristics unions the refs and trigger sources observed across
// members, sorted for stable output.
func memberCharacteristics(members []MemberRun) (refPatterns, sources []string) {
	refSet := make(map[string]bool)
	sourceSet := make(map[string]bool)
	for _, member := range members {
		if member.Run.Ref != "" {
			refSet[member.Run.Ref] = true
		}
		if member.Run.Source != "" {
			sourceSet[member.Run.Source] = true
		}
	}
	return sortedKeys(refSet), sortedKeys(sourceSet)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
