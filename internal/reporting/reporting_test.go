package reporting

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/pcfilter/internal/ir"
)

func entries(pairs ...any) []ir.Entry {
	var out []ir.Entry
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, ir.Entry{Path: pairs[i].(string), Occurrences: pairs[i+1].(int)})
	}
	return out
}

func TestCountByObject(t *testing.T) {
	got := CountByObject(entries("a.cs", 1, "b.cs", 4, "a.cs", 2))
	assert.Equal(t, map[string]int{"a.cs": 3, "b.cs": 4}, got)
}

func TestTopObjects(t *testing.T) {
	es := entries("c.cs", 2, "a.cs", 5, "b.cs", 2, "d.cs", 1)

	assert.Equal(t, []ObjectCount{
		{Path: "a.cs", Occurrences: 5},
		{Path: "b.cs", Occurrences: 2},
		{Path: "c.cs", Occurrences: 2},
	}, TopObjects(es, 3))
	assert.Len(t, TopObjects(es, 0), 4)
	assert.Empty(t, TopObjects(nil, 5))
}

func TestDiff(t *testing.T) {
	base := &ir.Run{ID: "run-base", Total: 6, Entries: entries("kept.cs", 1, "gone.cs", 2, "grew.cs", 3)}
	head := &ir.Run{ID: "run-head", Total: 10, Entries: entries("kept.cs", 1, "grew.cs", 4, "grew.cs", 1, "fresh.cs", 4)}

	d := Diff(base, head)
	assert.Equal(t, DiffSummary{BaseTotal: 6, HeadTotal: 10, NewCount: 1, RemovedCount: 1, ChangedCount: 1}, d.Summary)
	assert.Equal(t, []ObjectCount{{Path: "fresh.cs", Occurrences: 4}}, d.New)
	assert.Equal(t, []ObjectCount{{Path: "gone.cs", Occurrences: 2}}, d.Removed)
	assert.Equal(t, []DiffChanged{{Path: "grew.cs", Base: 3, Head: 5}}, d.Changed)
}

func TestWriteDiffJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	base := &ir.Run{ID: "run-1"}
	head := &ir.Run{ID: "run-2", Total: 1, Entries: entries("x.cs", 1)}

	path, err := WriteDiffJSON(dir, base, head)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "diff_run-1__run-2.json"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got DiffResult
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 1, got.Summary.NewCount)
	assert.Empty(t, got.Removed)
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	run := &ir.Run{ID: "run-j", Total: 3, Entries: []ir.Entry{{Object: "o", Path: "p", Occurrences: 3, Line: 2}}}

	path, err := WriteJSON(run.ID, dir, run)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-j.json"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got ir.Run
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, run.Entries, got.Entries)
	assert.Equal(t, 3, got.Total)
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	run := &ir.Run{
		ID:      "run-h",
		Input:   "newPoliCheckIssue",
		Output:  "filesNamesToSkipNew.txt",
		Total:   4,
		Skipped: 1,
		Entries: []ir.Entry{{Object: `C:\\repo\\<b>.cs`, Path: `<b>.cs`, Occurrences: 4, Line: 3}},
	}

	path, err := WriteHTML(run.ID, dir, run)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(b)

	assert.Contains(t, page, "Total issues: <b>4</b>")
	assert.Contains(t, page, "Top Objects")
	assert.Contains(t, page, "&lt;b&gt;.cs")
	assert.Contains(t, page, "- &#34;&lt;b&gt;.cs&#34;")
	assert.NotContains(t, page, "<b>.cs")
}

func TestWriteHTML_NoEntries(t *testing.T) {
	path, err := WriteHTML("run-empty", t.TempDir(), &ir.Run{ID: "run-empty"})
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "No objects with occurrences.")
	assert.NotContains(t, string(b), "Top Objects")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFlushHTML_ReportsWriteError(t *testing.T) {
	w := bufio.NewWriterSize(failingWriter{}, 16)
	fmt.Fprint(w, "<!doctype html><html><head></head><body></body></html>")

	err := flushHTML(w, "run-x.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-x.html")
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriteHTML_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "reports")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := WriteHTML("run-x", blocker, &ir.Run{ID: "run-x"})
	assert.Error(t, err)
}
