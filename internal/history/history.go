// Package history archives report runs so past analyses can be listed from
// the CLI and the HTTP API.
package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/infra"
)

// Run is one archived report run.
type Run struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	Keyword    string    `json:"keyword"`
	Model      string    `json:"model,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  int       `json:"succeeded"`
	Total      int       `json:"total"`
	Sentiment  string    `json:"sentiment,omitempty"`
	Action     string    `json:"action,omitempty"`
	ReportPath string    `json:"report_path,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// FromResult flattens a workflow result for archiving. path is the saved
// markdown file, or "" when the report was not written.
func FromResult(res *agent.Result, path string) *Run {
	run := &Run{
		ID:         res.RunID,
		Symbol:     res.Symbol.Code,
		Name:       res.Symbol.Name,
		Keyword:    res.Keyword,
		Model:      res.Model,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Succeeded:  res.Succeeded(),
		Total:      res.Total(),
		ReportPath: path,
		Errors:     res.Errors,
	}
	if res.Sentiment != nil {
		run.Sentiment = string(res.Sentiment.Level)
	}
	if res.Synthesis != nil && res.Synthesis.Recommendation != nil {
		run.Action = string(res.Synthesis.Recommendation.Action)
	}
	return run
}

// ListOptions filters ListRuns. Zero values mean no filter; Limit defaults
// to 20.
type ListOptions struct {
	Symbol string
	Limit  int
}

// Recorder persists report runs.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, opts ListOptions) ([]Run, error)
	Close() error
}

// Open returns a SQLite recorder at path, or a no-op recorder when path is
// empty or the database cannot be opened.
func Open(path string) Recorder {
	if strings.TrimSpace(path) == "" {
		return NewNoopRecorder()
	}
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		infra.Logger().Warn("history disabled", "path", path, "error", err)
		return NewNoopRecorder()
	}
	rec, err := NewSQLiteRecorder(path)
	if err != nil {
		infra.Logger().Warn("history disabled", "path", path, "error", err)
		return NewNoopRecorder()
	}
	return rec
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
