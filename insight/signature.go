package insight

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Signature is the deterministic clustering key derived from a run's job-name
// set. Two runs with identical job-name sets always share a signature,
// regardless of job discovery order or any stage/ref/source metadata.
type Signature string

// BuildSignature hashes a sorted, deduplicated copy of the job names so the
// key is stable across process runs. Names are length-prefixed to keep
// distinct sets from colliding on concatenation.
func BuildSignature(jobNames []string) Signature {
	sorted := sortedJobNames(jobNames)

	h := sha256.New()
	for _, name := range sorted {
		fmt.Fprintf(h, "%d:%s", len(name), name)
	}
	return Signature(hex.EncodeToString(h.Sum(nil)))
}

// sortedJobNames returns a sorted, deduplicated copy of names.
func sortedJobNames(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	deduped := sorted[:0]
	for i, name := range sorted {
		if i == 0 || name != sorted[i-1] {
			deduped = append(deduped, name)
		}
	}
	return deduped
}

// outcomeJobNames collects the sorted job names of a normalized run.
func outcomeJobNames(outcomes map[string]*JobOutcome) []string {
	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
