// Package pipeline runs one analysis end to end: workflow, report
// assembly, file output and archiving. The CLI, the API server and the
// watch scheduler all go through it.
package pipeline

import (
	"context"
	"fmt"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/internal/history"
	"github.com/seenimoa/futuresagent/internal/infra"
	"github.com/seenimoa/futuresagent/internal/report"
)

// Analyzer is the workflow behind a report. *agent.Orchestrator implements it.
type Analyzer interface {
	Run(ctx context.Context, req agent.Request) (*agent.Result, error)
	Snapshot(ctx context.Context, code string) (*technical.Snapshot, error)
}

// Runner ties the workflow to report output.
type Runner struct {
	Analyzer Analyzer
	Writer   *report.Writer   // nil: do not save
	History  history.Recorder // nil: do not archive
}

// Outcome is everything one analysis produced.
type Outcome struct {
	Result  *agent.Result  `json:"result"`
	Report  *report.Report `json:"report"`
	Saved   *report.Saved  `json:"saved,omitempty"`
	SaveErr error          `json:"-"`
}

// Path returns the saved markdown path, or "".
func (o *Outcome) Path() string {
	if o.Saved == nil {
		return ""
	}
	return o.Saved.Markdown
}

// Analyze runs the workflow and assembles the report. Errors are returned
// only when no report can be built: an unsupported symbol or a cancelled
// context. A failed save is reported in Outcome.SaveErr.
func (r *Runner) Analyze(ctx context.Context, req agent.Request) (*Outcome, error) {
	res, err := r.Analyzer.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Result: res, Report: report.Build(res)}
	log := infra.Logger().With("run_id", res.RunID, "symbol", res.Symbol.Code)

	if r.Writer != nil {
		saved, err := r.Writer.Save(ctx, out.Report)
		if err != nil {
			out.SaveErr = fmt.Errorf("saving report: %w", err)
			log.Error("report not saved", "error", err)
		}
		out.Saved = saved
	}

	if r.History != nil {
		if err := r.History.RecordRun(ctx, history.FromResult(res, out.Path())); err != nil {
			log.Warn("run not archived", "error", err)
		}
	}
	return out, nil
}
