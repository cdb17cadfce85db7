package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/internal/datasource"
	"github.com/seenimoa/futuresagent/internal/history"
	"github.com/seenimoa/futuresagent/internal/report"
	"github.com/seenimoa/futuresagent/pkg/models"
)

type stubAnalyzer struct {
	calls int
}

func (s *stubAnalyzer) Run(_ context.Context, req agent.Request) (*agent.Result, error) {
	s.calls++
	sym, err := datasource.Lookup(req.Symbol)
	if err != nil {
		return nil, err
	}
	end := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)
	res := &agent.Result{
		RunID:      "run-" + sym.Code,
		Symbol:     sym,
		Keyword:    sym.Name,
		StartedAt:  end.Add(-time.Minute),
		FinishedAt: end,
	}
	for _, k := range agent.BlockKinds() {
		res.Blocks = append(res.Blocks, &agent.Block{Kind: k, Content: k.Label()})
	}
	res.Block(agent.BlockBearish).Error = "看跌分析出错: boom"
	res.Errors = []string{"看跌分析出错: boom"}
	return res, nil
}

func (s *stubAnalyzer) Snapshot(context.Context, string) (*technical.Snapshot, error) {
	return nil, nil
}

type memRecorder struct{ runs []history.Run }

func (m *memRecorder) RecordRun(_ context.Context, r *history.Run) error {
	m.runs = append(m.runs, *r)
	return nil
}
func (m *memRecorder) ListRuns(context.Context, history.ListOptions) ([]history.Run, error) {
	return m.runs, nil
}
func (m *memRecorder) Close() error { return nil }

func TestAnalyze_SavesAndRecords(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{}
	r := &Runner{
		Analyzer: &stubAnalyzer{},
		Writer:   report.NewWriter(report.WriterConfig{Dir: dir}),
		History:  rec,
	}

	out, err := r.Analyze(context.Background(), agent.Request{Symbol: "CU"})
	require.NoError(t, err)
	require.NoError(t, out.SaveErr)

	assert.Equal(t, filepath.Join(dir, "CU_铜_20261019_153000.md"), out.Path())
	_, err = os.Stat(out.Path())
	assert.NoError(t, err)

	assert.Equal(t, 5, out.Report.Succeeded)
	assert.True(t, out.Report.Section(report.SectionCombined).Failed)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, "run-cu", rec.runs[0].ID)
	assert.Equal(t, out.Path(), rec.runs[0].ReportPath)
	assert.Equal(t, []string{"看跌分析出错: boom"}, rec.runs[0].Errors)
}

func TestAnalyze_UnsupportedSymbol(t *testing.T) {
	rec := &memRecorder{}
	r := &Runner{Analyzer: &stubAnalyzer{}, History: rec}

	out, err := r.Analyze(context.Background(), agent.Request{Symbol: "zz"})
	assert.ErrorIs(t, err, datasource.ErrUnsupportedSymbol)
	assert.Nil(t, out)
	assert.Empty(t, rec.runs)
}

func TestAnalyze_NoWriter(t *testing.T) {
	r := &Runner{Analyzer: &stubAnalyzer{}}
	out, err := r.Analyze(context.Background(), agent.Request{Symbol: "rb"})
	require.NoError(t, err)
	assert.Empty(t, out.Path())
	assert.Equal(t, models.Symbol{Code: "rb", Name: "螺纹钢", Exchange: models.SHFE}, out.Result.Symbol)
}

func TestAnalyze_SaveFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	r := &Runner{
		Analyzer: &stubAnalyzer{},
		Writer:   report.NewWriter(report.WriterConfig{Dir: filepath.Join(blocker, "reports")}),
	}
	out, err := r.Analyze(context.Background(), agent.Request{Symbol: "cu"})
	require.NoError(t, err)
	assert.Error(t, out.SaveErr)
	assert.NotEmpty(t, out.Report.Markdown())
}
