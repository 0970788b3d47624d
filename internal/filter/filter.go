// Package filter turns a PoliCheck issue log into skip-list entries.
//
// A pass reads every line of the log, remembers the most recent Object path
// and, for each Occurrences line with a count above zero, adds the count to
// the run total and records the object as an entry. The total goes to stdout
// and the entries are appended to the skip-list file.
package filter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codewithboateng/pcfilter/internal/ir"
	"github.com/codewithboateng/pcfilter/internal/parser"
)

const (
	DefaultInput       = "newPoliCheckIssue"
	DefaultOutput      = "filesNamesToSkipNew.txt"
	DefaultStripPrefix = 10
)

type Options struct {
	Input       string
	Output      string
	StripPrefix int // characters removed from the front of each object path
}

func (o Options) withDefaults() Options {
	if o.Input == "" {
		o.Input = DefaultInput
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.StripPrefix < 0 {
		o.StripPrefix = 0
	}
	return o
}

// Run performs one full pass: read opts.Input, print the total to stdout,
// append the entries to opts.Output. Nothing is appended when the scan fails.
func Run(ctx context.Context, opts Options, stdout io.Writer) (ir.Run, error) {
	opts = opts.withDefaults()
	log := zap.L().With(zap.String("input", opts.Input))

	f, err := os.Open(opts.Input)
	if err != nil {
		return ir.Run{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	run, diags, err := Scan(ctx, f, opts.StripPrefix)
	if err != nil {
		return ir.Run{}, fmt.Errorf("scan %s: %w", opts.Input, err)
	}
	for _, w := range diags.Warnings {
		log.Warn("report warning", zap.String("warning", w))
	}

	run.ID = "run-" + uuid.NewString()
	run.StartedAt = time.Now().UTC()
	run.Input = opts.Input
	run.Output = opts.Output
	run.IRVersion = ir.Version

	if _, err := fmt.Fprintln(stdout, run.Total); err != nil {
		return run, fmt.Errorf("write total: %w", err)
	}

	if err := AppendEntries(opts.Output, run.Entries); err != nil {
		return run, err
	}
	log.Info("skip list updated",
		zap.String("run", run.ID),
		zap.String("output", opts.Output),
		zap.Int("entries", len(run.Entries)),
		zap.Int("total", run.Total),
		zap.Int("skipped", run.Skipped),
	)
	return run, nil
}

// Scan reads all of r and attributes every nonzero Occurrences line to the
// nearest preceding Object line. Only Total, Skipped and Entries are set on
// the returned run.
func Scan(ctx context.Context, r io.Reader, strip int) (ir.Run, parser.Diagnostics, error) {
	var run ir.Run
	diags := parser.Diagnostics{}

	lines, err := readLines(r)
	if err != nil {
		return run, diags, err
	}
	if len(lines) == 0 {
		diags.Warnings = append(diags.Warnings, "input is empty")
	}

	current := ""
	seenObject := false
	for i, text := range lines {
		if err := ctx.Err(); err != nil {
			return ir.Run{}, diags, err
		}
		ln, err := parser.ParseLine(i+1, text)
		if err != nil {
			return ir.Run{}, diags, err
		}

		switch ln.Kind {
		case parser.KindObject:
			current = ln.Object
			seenObject = true
		case parser.KindOccurrences:
			if !ln.Applicable || ln.Count <= 0 {
				run.Skipped++
				continue
			}
			if !seenObject {
				diags.Warnings = append(diags.Warnings,
					fmt.Sprintf("line %d: occurrences before any Object line", ln.Number))
			}
			run.Total += ln.Count
			run.Entries = append(run.Entries, ir.Entry{
				Object:      current,
				Path:        StripPrefix(current, strip),
				Occurrences: ln.Count,
				Line:        ln.Number,
			})
		}
	}
	return run, diags, nil
}

// readLines splits on "\n" with no line length limit. A lone "\r" is not a
// line break.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimSuffix(line, "\n"))
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read lines: %w", err)
		}
	}
}

// StripPrefix drops the first n characters of path; shorter paths become "".
func StripPrefix(path string, n int) string {
	if n <= 0 {
		return path
	}
	rs := []rune(path)
	if n >= len(rs) {
		return ""
	}
	return string(rs[n:])
}
