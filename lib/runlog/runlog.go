// Package runlog records the outcome of sync runs in a local sqlite
// database: when each target was last fetched, whether it was outdated
// and the content hash that was written. Later runs use it to skip
// redundant export downloads.
package runlog

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	target TEXT NOT NULL,
	time INTEGER NOT NULL,
	outdated INTEGER NOT NULL,
	row_count INTEGER NOT NULL,
	sha256 TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_target_time ON runs(target, time);
`

type Run struct {
	Target   string
	Time     time.Time
	Outdated bool
	RowCount int
	SHA256   string
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

// Open opens (or creates) the run log at path.
func Open(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	// see https://stackoverflow.com/questions/35804884 for why sqlite
	// writes want a single connection
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return Store{}, err
	}
	_, err = db.Exec(Schema)
	if err != nil {
		return Store{}, err
	}
	return Store{db: db}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (target, time, outdated, row_count, sha256)
		 VALUES (?, ?, ?, ?, ?)`,
		run.Target, run.Time.Unix(), run.Outdated, run.RowCount, run.SHA256,
	)
	return err
}

// Last returns the most recent run for a target, or false when the
// target has never been synced.
func (s Store) Last(ctx context.Context, target string) (Run, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT target, time, outdated, row_count, sha256 FROM runs
		 WHERE target = ? ORDER BY time DESC LIMIT 1`,
		target,
	)
	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// Recent returns up to limit runs across all targets, newest first.
func (s Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT target, time, outdated, row_count, sha256 FROM runs
		 ORDER BY time DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scan func(...any) error) (Run, error) {
	var run Run
	var unix int64
	err := scan(&run.Target, &unix, &run.Outdated, &run.RowCount, &run.SHA256)
	if err != nil {
		return Run{}, err
	}
	run.Time = time.Unix(unix, 0)
	return run, nil
}
