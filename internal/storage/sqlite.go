package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/codewithboateng/pcfilter/internal/ir"
)

var (
	ErrNotFound          = errors.New("run not found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// timeLayout is fixed width so started_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DB is the run history store backed by SQLite.
type DB struct {
	conn *sql.DB
}

// Open picks the store for driver. Only "sqlite" is available; "" means sqlite.
func Open(driver, path string) (*DB, error) {
	switch driver {
	case "", "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// OpenSQLite opens (and creates if missing) a SQLite DB at path.
func OpenSQLite(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	c, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{conn: c}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) CreateSchema() error {
	_, err := db.conn.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id         TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,  -- timeLayout, UTC
  input      TEXT,
  output     TEXT,
  total      INTEGER NOT NULL DEFAULT 0,
  ir_version TEXT,
  run_json   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
  run_id      TEXT NOT NULL,
  seq         INTEGER NOT NULL,  -- order of appearance in the skip list
  object      TEXT NOT NULL,
  path        TEXT NOT NULL,
  occurrences INTEGER NOT NULL,
  line        INTEGER NOT NULL,
  PRIMARY KEY (run_id, seq),
  FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_entries_path ON entries(path);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRun upserts a run JSON and (re)writes its entries.
func (db *DB) SaveRun(run *ir.Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return err
	}
	ts := run.StartedAt.UTC().Format(timeLayout)

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, started_at, input, output, total, ir_version, run_json)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET started_at=excluded.started_at, input=excluded.input, output=excluded.output,
                                       total=excluded.total, ir_version=excluded.ir_version, run_json=excluded.run_json`,
		run.ID, ts, run.Input, run.Output, run.Total, run.IRVersion, string(b),
	); err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM entries WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if len(run.Entries) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO entries (run_id, seq, object, path, occurrences, line)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, e := range run.Entries {
			if _, err := stmt.Exec(run.ID, i, e.Object, e.Path, e.Occurrences, e.Line); err != nil {
				return fmt.Errorf("insert entry %d: %w", i, err)
			}
		}
	}

	return tx.Commit()
}

// LoadRun returns the full run (from stored JSON).
func (db *DB) LoadRun(id string) (ir.Run, error) {
	return db.loadOne(`SELECT run_json FROM runs WHERE id = ?`, id)
}

// LoadLatestRun returns the most recently started run.
func (db *DB) LoadLatestRun() (ir.Run, error) {
	return db.loadOne(`SELECT run_json FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`)
}

func (db *DB) loadOne(q string, args ...any) (ir.Run, error) {
	var s string
	if err := db.conn.QueryRow(q, args...).Scan(&s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if len(args) > 0 {
				return ir.Run{}, fmt.Errorf("%w: %v", ErrNotFound, args[0])
			}
			return ir.Run{}, ErrNotFound
		}
		return ir.Run{}, err
	}
	var run ir.Run
	if err := json.Unmarshal([]byte(s), &run); err != nil {
		return ir.Run{}, fmt.Errorf("decode run: %w", err)
	}
	return run, nil
}
