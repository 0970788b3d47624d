package reporting

import (
	"bufio"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/codewithboateng/pcfilter/internal/filter"
	"github.com/codewithboateng/pcfilter/internal/ir"
)

const topLimit = 20

// WriteHTML writes <outDir>/<runID>.html and returns its path.
func WriteHTML(runID, outDir string, run *ir.Run) (path string, err error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path = filepath.Join(outDir, runID+".html")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	// bufio keeps the first write error, so Flush reports it.
	f := bufio.NewWriter(file)

	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(runID))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace}</style>")
	fmt.Fprint(f, "</head><body>")

	fmt.Fprintf(f, "<h1>pcfilter run – <span class='mono'>%s</span></h1>", html.EscapeString(runID))
	fmt.Fprintf(f, "<p>Total issues: <b>%d</b> &nbsp; Entries: %d &nbsp; Skipped (N/A or zero): %d</p>",
		run.Total, len(run.Entries), run.Skipped)
	fmt.Fprintf(f, "<p class='dim'>Input: <span class='mono'>%s</span> &nbsp; Skip list: <span class='mono'>%s</span></p>",
		html.EscapeString(run.Input), html.EscapeString(run.Output))

	if len(run.Entries) == 0 {
		fmt.Fprint(f, "<h2>Entries</h2><p class='dim'>No objects with occurrences.</p></body></html>")
		return path, flushHTML(f, path)
	}

	fmt.Fprint(f, "<h2>Top Objects</h2><table><tr><th>Path</th><th>Occurrences</th></tr>")
	for _, oc := range TopObjects(run.Entries, topLimit) {
		fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td>%d</td></tr>", html.EscapeString(oc.Path), oc.Occurrences)
	}
	fmt.Fprint(f, "</table>")

	fmt.Fprint(f, "<h2>Entries</h2><table><tr><th>Line</th><th>Object</th><th>Occurrences</th><th>Skip-list entry</th></tr>")
	for _, e := range run.Entries {
		fmt.Fprintf(f, "<tr><td>%d</td><td class='mono'>%s</td><td>%d</td><td class='mono'>%s</td></tr>",
			e.Line,
			html.EscapeString(e.Object),
			e.Occurrences,
			html.EscapeString(filter.FormatEntry(e.Path)),
		)
	}
	fmt.Fprint(f, "</table></body></html>")
	return path, flushHTML(f, path)
}

func flushHTML(w *bufio.Writer, path string) error {
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
