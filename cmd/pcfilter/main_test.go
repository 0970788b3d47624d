package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const report = `<Object Type="File" URL="C:\\repo\\src\\foo.cs" Size="1">
<Occurrences>3</Occurrences>
</Object>
<Object Type="File" URL="C:\\repo\\src\\bar.cs" Size="1">
<Occurrences>N/A</Occurrences>
</Object>
`

func setupWorkspace(t *testing.T) (dir, in, skip, db string) {
	t.Helper()
	t.Setenv("PCFILTER_LOG_LEVEL", "error")
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	dir = t.TempDir()
	in = filepath.Join(dir, "newPoliCheckIssue")
	require.NoError(t, os.WriteFile(in, []byte(report), 0o644))
	return dir, in, filepath.Join(dir, "filesNamesToSkipNew.txt"), filepath.Join(dir, "pcfilter.db")
}

func TestFilterCmd(t *testing.T) {
	dir, in, skip, db := setupWorkspace(t)
	out := filepath.Join(dir, "reports")

	var stdout bytes.Buffer
	code := filterCmd([]string{"--in", in, "--skip-file", skip, "--db", db, "--out", out}, &stdout)
	require.Equal(t, 0, code)
	assert.Equal(t, "3\n", stdout.String(), "stdout carries only the total")

	b, err := os.ReadFile(skip)
	require.NoError(t, err)
	assert.Equal(t, `- "src\\foo.cs"`+"\n", string(b))

	reports, err := filepath.Glob(filepath.Join(out, "run-*"))
	require.NoError(t, err)
	assert.Len(t, reports, 2, "json and html report")
}

func TestFilterCmd_StripFlag(t *testing.T) {
	_, in, skip, _ := setupWorkspace(t)

	var stdout bytes.Buffer
	require.Equal(t, 0, filterCmd([]string{"--in", in, "--skip-file", skip, "--strip", "0"}, &stdout))

	b, err := os.ReadFile(skip)
	require.NoError(t, err)
	assert.Equal(t, `- "C:\\repo\\src\\foo.cs"`+"\n", string(b))
}

func TestFilterCmd_MissingInput(t *testing.T) {
	dir, _, skip, _ := setupWorkspace(t)

	var stdout bytes.Buffer
	code := filterCmd([]string{"--in", filepath.Join(dir, "absent"), "--skip-file", skip}, &stdout)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
}

func TestFilterCmd_BadConfig(t *testing.T) {
	dir, in, skip, _ := setupWorkspace(t)

	var stdout bytes.Buffer
	code := filterCmd([]string{"--config", filepath.Join(dir, "missing.yaml"), "--in", in, "--skip-file", skip}, &stdout)
	assert.Equal(t, 1, code)
	_, err := os.Stat(skip)
	assert.True(t, os.IsNotExist(err))
}

func TestHistoryReportDiff(t *testing.T) {
	dir, in, skip, db := setupWorkspace(t)
	out := filepath.Join(dir, "reports")

	var sink bytes.Buffer
	require.Equal(t, 0, filterCmd([]string{"--in", in, "--skip-file", skip, "--db", db}, &sink))
	require.NoError(t, os.WriteFile(in, []byte(report+"<Occurrences>2</Occurrences>\n"), 0o644))
	require.Equal(t, 0, filterCmd([]string{"--in", in, "--skip-file", skip, "--db", db}, &sink))

	var hist bytes.Buffer
	require.Equal(t, 0, historyCmd([]string{"--db", db}, &hist))
	lines := strings.Split(strings.TrimSpace(hist.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RUN"))

	headID := strings.Fields(lines[1])[0]
	baseID := strings.Fields(lines[2])[0]
	assert.Equal(t, "5", strings.Fields(lines[1])[2])
	assert.Equal(t, "3", strings.Fields(lines[2])[2])

	var rep bytes.Buffer
	require.Equal(t, 0, reportCmd([]string{"--latest", "--db", db, "--out", out}, &rep))
	assert.Contains(t, rep.String(), headID)
	assert.FileExists(t, filepath.Join(out, headID+".json"))
	assert.FileExists(t, filepath.Join(out, headID+".html"))

	var diff bytes.Buffer
	require.Equal(t, 0, diffCmd([]string{"--base", baseID, "--head", headID, "--db", db, "--out", out}, &diff))
	assert.FileExists(t, filepath.Join(out, "diff_"+baseID+"__"+headID+".json"))
}

func TestUsageErrors(t *testing.T) {
	_, _, _, db := setupWorkspace(t)
	var stdout bytes.Buffer

	assert.Equal(t, 2, historyCmd(nil, &stdout))
	assert.Equal(t, 2, reportCmd([]string{"--db", db, "--out", "x"}, &stdout))
	assert.Equal(t, 2, reportCmd([]string{"--run", "r", "--latest", "--db", db, "--out", "x"}, &stdout))
	assert.Equal(t, 2, diffCmd([]string{"--base", "a", "--db", db, "--out", "x"}, &stdout))
}

func TestHistoryCmd_RunEntries(t *testing.T) {
	_, in, skip, db := setupWorkspace(t)

	var sink bytes.Buffer
	require.Equal(t, 0, filterCmd([]string{"--in", in, "--skip-file", skip, "--db", db}, &sink))

	var hist bytes.Buffer
	require.Equal(t, 0, historyCmd([]string{"--db", db}, &hist))
	lines := strings.Split(strings.TrimSpace(hist.String()), "\n")
	require.Len(t, lines, 2)
	runID := strings.Fields(lines[1])[0]

	var entries bytes.Buffer
	require.Equal(t, 0, historyCmd([]string{"--db", db, "--run", runID}, &entries))
	skipped, err := os.ReadFile(skip)
	require.NoError(t, err)
	assert.Equal(t, string(skipped), entries.String(), "stored entries match the appended skip list")

	entries.Reset()
	assert.Equal(t, 2, historyCmd([]string{"--db", db, "--run", "run-missing"}, &entries))
	assert.Empty(t, entries.String())
}

func TestDiffCmd_UnknownRun(t *testing.T) {
	dir, in, skip, db := setupWorkspace(t)
	out := filepath.Join(dir, "reports")

	var sink bytes.Buffer
	require.Equal(t, 0, filterCmd([]string{"--in", in, "--skip-file", skip, "--db", db}, &sink))
	var hist bytes.Buffer
	require.Equal(t, 0, historyCmd([]string{"--db", db}, &hist))
	runID := strings.Fields(strings.Split(strings.TrimSpace(hist.String()), "\n")[1])[0]

	var stdout bytes.Buffer
	assert.Equal(t, 2, diffCmd([]string{"--base", runID, "--head", "run-missing", "--db", db, "--out", out}, &stdout))
	assert.Equal(t, 2, diffCmd([]string{"--base", "run-missing", "--head", runID, "--db", db, "--out", out}, &stdout))
	assert.NoDirExists(t, out)
}

func TestFilterCmd_UnsupportedDriver(t *testing.T) {
	dir, in, skip, db := setupWorkspace(t)
	cfg := filepath.Join(dir, "pcfilter.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("database:\n  driver: postgres\n"), 0o644))

	var stdout bytes.Buffer
	assert.Equal(t, 1, filterCmd([]string{"--config", cfg, "--in", in, "--skip-file", skip, "--db", db}, &stdout))
	assert.NoFileExists(t, db)
}
