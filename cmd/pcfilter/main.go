package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/codewithboateng/pcfilter/internal/filter"
	"github.com/codewithboateng/pcfilter/internal/ir"
	"github.com/codewithboateng/pcfilter/internal/reporting"
	"github.com/codewithboateng/pcfilter/internal/shared"
	"github.com/codewithboateng/pcfilter/internal/storage"
)

func main() {
	// No arguments: one pass over the fixed input and skip-list names.
	if len(os.Args) < 2 {
		os.Exit(filterCmd(nil, os.Stdout))
	}
	switch os.Args[1] {
	case "filter":
		os.Exit(filterCmd(os.Args[2:], os.Stdout))
	case "history":
		os.Exit(historyCmd(os.Args[2:], os.Stdout))
	case "report":
		os.Exit(reportCmd(os.Args[2:], os.Stdout))
	case "diff":
		os.Exit(diffCmd(os.Args[2:], os.Stdout))
	case "version":
		fmt.Println("pcfilter IR:", ir.Version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `pcfilter – PoliCheck issue log to skip-list filter

Usage:
  pcfilter
  pcfilter filter  [--in newPoliCheckIssue] [--skip-file filesNamesToSkipNew.txt] [--strip 10] [--db ./pcfilter.db] [--out <reports-dir>] [--config ./pcfilter.yaml]
  pcfilter history [--db ./pcfilter.db] [--limit 20 | --run <run-id>] [--config ./pcfilter.yaml]
  pcfilter report  (--run <run-id> | --latest) --out <reports-dir> [--db ./pcfilter.db] [--config ./pcfilter.yaml]
  pcfilter diff    --base <run-id> --head <run-id> --out <reports-dir> [--db ./pcfilter.db] [--config ./pcfilter.yaml]
  pcfilter version
`)
}

// setup loads config and installs the logger. Errors here are reported on
// stderr directly since there is no logger yet.
func setup(configPath string) (shared.Config, *zap.Logger, bool) {
	cfg, err := shared.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return cfg, nil, false
	}
	logger, err := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		return cfg, nil, false
	}
	return cfg, logger, true
}

func filterCmd(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	inPath := fs.String("in", "", "PoliCheck issue log")
	skipPath := fs.String("skip-file", "", "Skip-list file to append to")
	strip := fs.Int("strip", -1, "Characters stripped from the front of each object path")
	dbPath := fs.String("db", "", "SQLite run history (optional)")
	outDir := fs.String("out", "", "Output directory for reports (optional)")
	_ = fs.Parse(args)

	cfg, logger, ok := setup(*configPath)
	if !ok {
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// precedence: flags > config > defaults
	if *inPath == "" {
		*inPath = cfg.Filter.Input
	}
	if *skipPath == "" {
		*skipPath = cfg.Filter.Output
	}
	if *strip < 0 {
		*strip = cfg.Filter.StripPrefix
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := filter.Run(ctx, filter.Options{
		Input:       *inPath,
		Output:      *skipPath,
		StripPrefix: *strip,
	}, stdout)
	if err != nil {
		logger.Error("filter failed", zap.Error(err))
		return 1
	}

	if *dbPath != "" {
		if err := saveRun(cfg.Database.Driver, *dbPath, &run); err != nil {
			logger.Error("history save failed", zap.String("db", *dbPath), zap.Error(err))
			return 1
		}
		logger.Debug("run saved", zap.String("run", run.ID), zap.String("db", filepath.Clean(*dbPath)))
	}
	if *outDir != "" {
		if err := writeReports(logger, *outDir, &run); err != nil {
			return 1
		}
	}
	return 0
}

func historyCmd(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	dbPath := fs.String("db", "", "SQLite run history")
	limit := fs.Int("limit", 20, "Maximum runs to list")
	runID := fs.String("run", "", "Print the skip-list entries of one run instead")
	_ = fs.Parse(args)

	cfg, logger, ok := setup(*configPath)
	if !ok {
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "history: --db (or database.dsn in config) is required")
		return 2
	}

	db, err := openDB(cfg.Database.Driver, *dbPath)
	if err != nil {
		logger.Error("db open error", zap.Error(err))
		return 1
	}
	defer db.Close()

	if *runID != "" {
		return printEntries(logger, db, *runID, stdout)
	}

	rows, err := db.ListRuns(*limit, 0)
	if err != nil {
		logger.Error("list runs error", zap.Error(err))
		return 1
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tTOTAL\tENTRIES\tINPUT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.StartedAt.Format(time.RFC3339), r.Total, r.Entries, r.Input)
	}
	if err := tw.Flush(); err != nil {
		logger.Error("write history", zap.Error(err))
		return 1
	}
	return 0
}

// printEntries writes a stored run's entries as skip-list lines.
func printEntries(logger *zap.Logger, db *storage.DB, runID string, stdout io.Writer) int {
	ok, err := db.HasRun(runID)
	if err != nil {
		logger.Error("lookup run error", zap.Error(err))
		return 1
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "history: unknown run %q\n", runID)
		return 2
	}
	entries, err := db.ListEntries(runID)
	if err != nil {
		logger.Error("list entries error", zap.Error(err))
		return 1
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(stdout, filter.FormatEntry(e.Path)); err != nil {
			logger.Error("write entries", zap.Error(err))
			return 1
		}
	}
	return 0
}

func reportCmd(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	runID := fs.String("run", "", "Run ID")
	latest := fs.Bool("latest", false, "Use the most recent run")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite run history")
	_ = fs.Parse(args)

	cfg, logger, ok := setup(*configPath)
	if !ok {
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if (*runID == "") == !*latest || *outDir == "" || *dbPath == "" {
		fmt.Fprintln(os.Stderr, "report: exactly one of --run or --latest, plus --out and --db, are required")
		return 2
	}

	db, err := openDB(cfg.Database.Driver, *dbPath)
	if err != nil {
		logger.Error("db open error", zap.Error(err))
		return 1
	}
	defer db.Close()

	var run ir.Run
	if *latest {
		run, err = db.LoadLatestRun()
	} else {
		run, err = db.LoadRun(*runID)
	}
	if err != nil {
		logger.Error("load run error", zap.Error(err))
		return 1
	}
	if err := writeReports(logger, *outDir, &run); err != nil {
		return 1
	}
	fmt.Fprintf(stdout, "Report OK\n  Run: %s\n  Out: %s\n", run.ID, filepath.Clean(*outDir))
	return 0
}

func diffCmd(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	base := fs.String("base", "", "Base run ID")
	head := fs.String("head", "", "Head run ID")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite run history")
	_ = fs.Parse(args)

	cfg, logger, ok := setup(*configPath)
	if !ok {
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *base == "" || *head == "" || *outDir == "" || *dbPath == "" {
		fmt.Fprintln(os.Stderr, "diff: --base, --head, --out and --db are required")
		return 2
	}

	db, err := openDB(cfg.Database.Driver, *dbPath)
	if err != nil {
		logger.Error("db open error", zap.Error(err))
		return 1
	}
	defer db.Close()

	for _, id := range []string{*base, *head} {
		ok, err := db.HasRun(id)
		if err != nil {
			logger.Error("lookup run error", zap.Error(err))
			return 1
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "diff: unknown run %q\n", id)
			return 2
		}
	}

	br, err := db.LoadRun(*base)
	if err != nil {
		logger.Error("load base run error", zap.Error(err))
		return 1
	}
	hr, err := db.LoadRun(*head)
	if err != nil {
		logger.Error("load head run error", zap.Error(err))
		return 1
	}
	path, err := reporting.WriteDiffJSON(*outDir, &br, &hr)
	if err != nil {
		logger.Error("write diff error", zap.Error(err))
		return 1
	}
	fmt.Fprintf(stdout, "Diff OK\n  %s\n", path)
	return 0
}

func openDB(driver, path string) (*storage.DB, error) {
	db, err := storage.Open(driver, path)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func saveRun(driver, path string, run *ir.Run) error {
	db, err := openDB(driver, path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveRun(run)
}

func writeReports(logger *zap.Logger, outDir string, run *ir.Run) error {
	jsonPath, err := reporting.WriteJSON(run.ID, outDir, run)
	if err != nil {
		logger.Error("write json report", zap.Error(err))
		return err
	}
	htmlPath, err := reporting.WriteHTML(run.ID, outDir, run)
	if err != nil {
		logger.Error("write html report", zap.Error(err))
		return err
	}
	logger.Info("reports written", zap.String("run", run.ID), zap.String("json", jsonPath), zap.String("html", htmlPath))
	return nil
}
