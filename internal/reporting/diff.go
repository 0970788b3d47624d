package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/codewithboateng/pcfilter/internal/ir"
)

type DiffResult struct {
	BaseID  string        `json:"base_id"`
	HeadID  string        `json:"head_id"`
	Summary DiffSummary   `json:"summary"`
	New     []ObjectCount `json:"new"`
	Removed []ObjectCount `json:"removed"`
	Changed []DiffChanged `json:"changed"`
}

type DiffSummary struct {
	BaseTotal    int `json:"base_total"`
	HeadTotal    int `json:"head_total"`
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	ChangedCount int `json:"changed"`
}

type DiffChanged struct {
	Path string `json:"path"`
	Base int    `json:"base"`
	Head int    `json:"head"`
}

// Diff compares two runs by skip-list path.
func Diff(base, head *ir.Run) DiffResult {
	bm := CountByObject(base.Entries)
	hm := CountByObject(head.Entries)

	added := []ObjectCount{}
	removed := []ObjectCount{}
	changed := []DiffChanged{}

	for p, hn := range hm {
		bn, ok := bm[p]
		switch {
		case !ok:
			added = append(added, ObjectCount{Path: p, Occurrences: hn})
		case bn != hn:
			changed = append(changed, DiffChanged{Path: p, Base: bn, Head: hn})
		}
	}
	for p, bn := range bm {
		if _, ok := hm[p]; !ok {
			removed = append(removed, ObjectCount{Path: p, Occurrences: bn})
		}
	}

	sort.Slice(added, func(i, j int) bool { return added[i].Path < added[j].Path })
	sort.Slice(removed, func(i, j int) bool { return removed[i].Path < removed[j].Path })
	sort.Slice(changed, func(i, j int) bool { return changed[i].Path < changed[j].Path })

	return DiffResult{
		BaseID: base.ID, HeadID: head.ID,
		Summary: DiffSummary{
			BaseTotal:    base.Total,
			HeadTotal:    head.Total,
			NewCount:     len(added),
			RemovedCount: len(removed),
			ChangedCount: len(changed),
		},
		New:     added,
		Removed: removed,
		Changed: changed,
	}
}

// WriteDiffJSON writes <outDir>/diff_<base>__<head>.json.
func WriteDiffJSON(outDir string, base, head *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, "diff_"+base.ID+"__"+head.ID+".json")
	b, err := json.MarshalIndent(Diff(base, head), "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}
