package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/codewithboateng/pcfilter/internal/ir"
)

// ListRuns returns runs newest first with their entry counts.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT r.id, r.started_at, r.input, r.output, r.total,
		       (SELECT COUNT(1) FROM entries e WHERE e.run_id = r.id) AS entries
		  FROM runs r
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		var startedAt string
		if err := rows.Scan(&rr.ID, &startedAt, &rr.Input, &rr.Output, &rr.Total, &rr.Entries); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, startedAt); err == nil {
			rr.StartedAt = t
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListEntries returns a run's entries in skip-list order.
func (db *DB) ListEntries(runID string) ([]ir.Entry, error) {
	const q = `
		SELECT object, path, occurrences, line
		  FROM entries
		 WHERE run_id = ?
		 ORDER BY seq`
	rows, err := db.conn.Query(q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.Entry
	for rows.Next() {
		var e ir.Entry
		if err := rows.Scan(&e.Object, &e.Path, &e.Occurrences, &e.Line); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) HasRun(id string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM runs WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
