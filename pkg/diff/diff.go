package diff

import (
	"sort"

	"civsync/pkg/civitai"
	"civsync/pkg/manifest"
)

// Result holds the two disjoint sets produced by comparing a fresh
// collection against the persisted manifest. It is derived state, recomputed
// every run and never stored.
//
// Added records come from the current collection. Removed records come from
// the manifest's stored copy - the only copy left, since the remote item no
// longer exists. Both slices are sorted ascending by identifier so reports
// and tests are reproducible.
type Result struct {
	Added   []civitai.ImageRecord
	Removed []civitai.ImageRecord
}

// Empty reports whether the run detected no change
func (r Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0
}

// Compute compares the current record set against the previous manifest by
// identifier.
func Compute(current []civitai.ImageRecord, previous manifest.Manifest) Result {
	currentKeys := make(map[string]bool, len(current))

	var result Result
	for _, record := range current {
		key := record.Key()
		currentKeys[key] = true
		if !previous.Has(key) {
			result.Added = append(result.Added, record)
		}
	}

	for key, record := range previous {
		if !currentKeys[key] {
			result.Removed = append(result.Removed, record)
		}
	}

	sortByID(result.Added)
	sortByID(result.Removed)

	return result
}

func sortByID(records []civitai.ImageRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
}
