package insight

import "strings"

// LabelFunc derives a human-readable display label for a pipeline type from
// its sorted job names. The heuristic is a naming concern, not an analysis
// one, so callers may plug in their own.
type LabelFunc func(jobNames []string) string

// DefaultLabel names a type from keywords in its job names: production
// deploys first, then anything that smells like a dev/test pipeline,
// otherwise a label listing the first few jobs.
func DefaultLabel(jobNames []string) string {
	for _, name := range jobNames {
		if strings.Contains(strings.ToLower(name), "prod") {
			return "Production Pipeline"
		}
	}

	devKeywords := []string{"staging", "dev", "test", "qa"}
	for _, name := range jobNames {
		lower := strings.ToLower(name)
		for _, keyword := range devKeywords {
			if strings.Contains(lower, keyword) {
				return "Development Pipeline"
			}
		}
	}

	head := jobNames
	if len(head) > 3 {
		head = head[:3]
	}
	return "Pipeline: " + strings.Join(head, ", ")
}
