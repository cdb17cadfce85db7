package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/config"
	"github.com/seenimoa/futuresagent/internal/history"
	"github.com/seenimoa/futuresagent/internal/pipeline"
	"github.com/seenimoa/futuresagent/internal/report"
	"github.com/seenimoa/futuresagent/pkg/models"
)

func TestPrintSymbols(t *testing.T) {
	var buf bytes.Buffer
	printSymbols(&buf, []models.Symbol{
		{Code: "au", Name: "黄金", Exchange: models.SHFE},
		{Code: "cu", Name: "铜", Exchange: models.SHFE},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"支持的期货品种:",
		"  au     - 黄金 (SHFE)",
		"  cu     - 铜 (SHFE)",
	}, lines)
}

func TestPrintOutcome(t *testing.T) {
	end := time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)
	res := &agent.Result{
		RunID:      "r1",
		Symbol:     models.Symbol{Code: "cu", Name: "铜", Exchange: models.SHFE},
		Keyword:    "铜",
		StartedAt:  end.Add(-2 * time.Minute),
		FinishedAt: end,
		Errors:     []string{"新闻分析出错: timeout"},
	}
	for _, k := range agent.BlockKinds() {
		res.Blocks = append(res.Blocks, &agent.Block{Kind: k, Content: "ok"})
	}
	res.Block(agent.BlockNews).Error = "新闻分析出错: timeout"

	out := &pipeline.Outcome{
		Result: res,
		Report: report.Build(res),
		Saved:  &report.Saved{Markdown: "reports/CU_铜_20261019_153000.md"},
	}
	var buf bytes.Buffer
	printOutcome(&buf, out)

	s := buf.String()
	assert.Contains(t, s, "# 铜 (CU) 期货投资分析报告")
	assert.Contains(t, s, "📄 报告已保存: reports/CU_铜_20261019_153000.md")
	assert.Contains(t, s, "📊 完成步骤: 5/6")
	assert.Contains(t, s, "  - 新闻分析出错: timeout")
	assert.NotContains(t, s, "HTML:")
}

func TestPrintOutcome_NotSaved(t *testing.T) {
	res := &agent.Result{Symbol: models.Symbol{Code: "rb", Name: "螺纹钢", Exchange: models.SHFE}}
	var buf bytes.Buffer
	printOutcome(&buf, &pipeline.Outcome{Result: res, Report: report.Build(res)})
	assert.NotContains(t, buf.String(), "报告已保存")
	assert.NotContains(t, buf.String(), "以下步骤出错")
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p(agent.Event{Type: agent.EventRunStarted, Message: "铜"})
	p(agent.Event{Type: agent.EventPhaseStarted, Phase: 1})
	p(agent.Event{Type: agent.EventBlockDone, Block: agent.BlockNews})
	p(agent.Event{Type: agent.EventBlockFailed, Block: agent.BlockBearish, Message: "timeout"})
	p(agent.Event{Type: agent.EventPhaseStarted, Phase: 3})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"▶ 阶段 1: 新闻、情绪与技术分析",
		"✅ 新闻分析",
		"❌ 看跌分析: timeout",
		"▶ 阶段 3: 综合分析",
	}, trimAll(lines))
	for _, l := range lines {
		assert.False(t, strings.HasSuffix(l, ": "), "phase line %q has no label", l)
	}
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Equal(t, "暂无历史记录\n", buf.String())

	buf.Reset()
	printRuns(&buf, []history.Run{{
		ID: "r1", Symbol: "cu", Keyword: "铜", Succeeded: 6, Total: 6,
		Action: "做多", FinishedAt: time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC),
	}})
	s := buf.String()
	assert.Contains(t, s, "2026-10-19 15:30:00")
	assert.Contains(t, s, "CU")
	assert.Contains(t, s, "6/6")
	assert.Contains(t, s, "做多")
}

func TestDefaultOutput(t *testing.T) {
	c := &config.Config{}
	c.Report.HTML = true
	out := defaultOutput(c)
	assert.True(t, out.Save)
	assert.True(t, out.HTML)
	assert.False(t, out.Split)
	assert.False(t, out.PDF)
}

func TestSearchMode(t *testing.T) {
	c := &config.Config{}
	assert.Equal(t, "RSS feed", searchMode(c))
	c.Search.ZhipuKey = "k"
	c.Search.Engine = "search_pro"
	assert.Equal(t, "zhipu search_pro (RSS fallback)", searchMode(c))
}

func TestNewOrchestrator_MissingKey(t *testing.T) {
	_, err := newOrchestrator(&config.Config{}, newMarket(&config.Config{}, false))
	assert.ErrorContains(t, err, "DEEPSEEK_API_KEY")
}
