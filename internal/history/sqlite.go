package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seenimoa/futuresagent/internal/infra"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API server read while a watch job writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	infra.Logger().Debug("history opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			name        TEXT,
			keyword     TEXT,
			model       TEXT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			succeeded   INTEGER NOT NULL,
			total       INTEGER NOT NULL,
			sentiment   TEXT,
			action      TEXT,
			report_path TEXT,
			errors      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts a run, replacing an earlier record with the same id.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("encode errors: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(id, symbol, name, keyword, model, started_at, finished_at,
		 succeeded, total, sentiment, action, report_path, errors)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Symbol, run.Name, run.Keyword, run.Model,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.Succeeded, run.Total, run.Sentiment, run.Action, run.ReportPath, string(errs),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns runs newest first.
func (r *SQLiteRecorder) ListRuns(ctx context.Context, opts ListOptions) ([]Run, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	query := `SELECT id, symbol, name, keyword, model, started_at, finished_at,
		succeeded, total, sentiment, action, report_path, errors FROM runs`
	var args []any
	if opts.Symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, opts.Symbol)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run             Run
			started, ended  int64
			name, kw, model sql.NullString
			sent, act, path sql.NullString
			errs            sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Symbol, &name, &kw, &model, &started, &ended,
			&run.Succeeded, &run.Total, &sent, &act, &path, &errs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Name, run.Keyword, run.Model = name.String, kw.String, model.String
		run.Sentiment, run.Action, run.ReportPath = sent.String, act.String, path.String
		run.StartedAt = time.UnixMilli(started)
		run.FinishedAt = time.UnixMilli(ended)
		if errs.Valid && errs.String != "" {
			if err := json.Unmarshal([]byte(errs.String), &run.Errors); err != nil {
				return nil, fmt.Errorf("decode errors of run %s: %w", run.ID, err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
