package reporting

import (
	"sort"

	"github.com/codewithboateng/pcfilter/internal/ir"
)

// CountByObject sums occurrences per stripped path across all entries.
func CountByObject(entries []ir.Entry) map[string]int {
	tally := make(map[string]int)
	for _, e := range entries {
		tally[e.Path] += e.Occurrences
	}
	return tally
}

type ObjectCount struct {
	Path        string `json:"path"`
	Occurrences int    `json:"occurrences"`
}

// TopObjects returns up to limit paths by occurrences desc, then path asc.
// limit <= 0 returns all of them.
func TopObjects(entries []ir.Entry, limit int) []ObjectCount {
	tally := CountByObject(entries)
	out := make([]ObjectCount, 0, len(tally))
	for p, n := range tally {
		out = append(out, ObjectCount{Path: p, Occurrences: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences == out[j].Occurrences {
			return out[i].Path < out[j].Path
		}
		return out[i].Occurrences > out[j].Occurrences
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
