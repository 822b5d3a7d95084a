// Package audit persists script run history to SQLite: one row per run plus
// the ordered output log, so past runs can be reviewed from the CLI.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Log is a SQLite-backed run history.
type Log struct {
	db      *sql.DB
	entropy *rand.Rand
}

// Run is one recorded script execution.
type Run struct {
	ID         string
	Script     string
	StartedAt  time.Time
	FinishedAt time.Time
	Success    bool
	Error      string
	Commands   int
}

// Output is one line of a run's output log.
type Output struct {
	Seq     int
	Line    int
	Command string
	Text    string
}

// Open opens or creates the audit database at the given path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	l := &Log{db: db, entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return l, nil
}

func (l *Log) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		script      TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		success     INTEGER,
		error       TEXT,
		commands    INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS run_output (
		run_id  TEXT NOT NULL REFERENCES runs(id),
		seq     INTEGER NOT NULL,
		line    INTEGER NOT NULL,
		command TEXT NOT NULL,
		text    TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	`
	_, err := l.db.Exec(schema)
	return err
}

func (l *Log) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), l.entropy).String()
}

// Begin records the start of a run and returns its ID.
func (l *Log) Begin(ctx context.Context, script string) (string, error) {
	id := l.newID()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, script, started_at) VALUES (?, ?, ?)`,
		id, script, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return id, nil
}

// Finish records a run's outcome and output log.
func (l *Log) Finish(ctx context.Context, id string, success bool, errMsg string, outputs []Output) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, success = ?, error = ?, commands = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), boolInt(success), errMsg, len(outputs), id)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	for i, o := range outputs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_output (run_id, seq, line, command, text) VALUES (?, ?, ?, ?, ?)`,
			id, i, o.Line, o.Command, o.Text)
		if err != nil {
			return fmt.Errorf("record run output: %w", err)
		}
	}
	return tx.Commit()
}

// Recent lists the most recent runs, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, script, started_at, finished_at, success, error, commands
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var finished, errMsg sql.NullString
		var success sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Script, &started, &finished, &success, &errMsg, &r.Commands); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished.String)
		}
		r.Success = success.Valid && success.Int64 == 1
		if errMsg.Valid {
			r.Error = errMsg.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outputs returns a run's output log in order.
func (l *Log) Outputs(ctx context.Context, runID string) ([]Output, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT seq, line, command, text FROM run_output WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Seq, &o.Line, &o.Command, &o.Text); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close closes the database.
func (l *Log) Close() error { return l.db.Close() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
