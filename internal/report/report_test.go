package report

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

var copper = models.Symbol{Code: "cu", Name: "铜", Exchange: models.SHFE}

// 2026-10-19 15:30:00 CST
var finished = time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC)

func sampleBars(n int) []models.OHLCV {
	bars := make([]models.OHLCV, n)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		open := 70000 + float64(i)*40
		close := open + float64(i%5)*10 - 15
		bars[i] = models.OHLCV{
			Date:         start.AddDate(0, 0, i),
			Open:         open,
			High:         math.Max(open, close) + 60,
			Low:          math.Min(open, close) - 60,
			Close:        close,
			Volume:       120000 + float64(i)*500,
			OpenInterest: 210000,
		}
	}
	return bars
}

func sampleResult(t *testing.T) *agent.Result {
	t.Helper()
	snap, err := technical.Compute(copper, sampleBars(30), technical.DefaultOptions())
	require.NoError(t, err)

	res := &agent.Result{
		RunID:      "run-1",
		Symbol:     copper,
		Keyword:    "铜",
		Model:      "deepseek-chat",
		StartedAt:  finished.Add(-90 * time.Second),
		FinishedAt: finished,
		Snapshot:   snap,
		Sentiment:  &agent.SentimentReading{Level: models.SentimentBullish, Label: "看涨", Intensity: 7},
		Synthesis: &agent.Synthesis{
			ExecutiveSummary: "铜价短期偏强，建议轻仓做多。",
			CombinedAnalysis: "# 多空对比\n多头因素占优。",
			Recommendation: &models.Recommendation{
				Action:     models.ActionBuy,
				Confidence: 0.65,
				Horizon:    "1-2周",
				Rationale:  "库存下降，需求回暖",
			},
			RiskFactors: []string{"宏观数据不及预期", "美元走强"},
			Structured:  true,
		},
	}
	for _, k := range agent.BlockKinds() {
		res.Blocks = append(res.Blocks, &agent.Block{
			Kind:    k,
			Agent:   string(k),
			Content: "# " + k.Label() + "\n" + k.Label() + "正文",
		})
	}
	return res
}

func assertHeadingsInOrder(t *testing.T, md string) {
	t.Helper()
	last := -1
	for _, k := range AllSections() {
		idx := strings.Index(md, "\n## "+k.Title()+"\n")
		require.GreaterOrEqual(t, idx, 0, "missing heading %s", k.Title())
		assert.Greater(t, idx, last, "heading %s out of order", k.Title())
		last = idx
	}
}

// ════════════════════════════════════════════════════════════════════
// Build / Markdown
// ════════════════════════════════════════════════════════════════════

func TestAllSections(t *testing.T) {
	got := AllSections()
	require.Len(t, got, 7)
	assert.Equal(t, SectionExecutiveSummary, got[0])
	assert.Equal(t, SectionRiskDisclosure, got[6])
	assert.Equal(t, "执行摘要 (Executive Summary)", SectionExecutiveSummary.Title())
	assert.Equal(t, "风险提示 (Risk Disclosure)", SectionRiskDisclosure.Title())
}

func TestBuild_AllSucceeded(t *testing.T) {
	rep := Build(sampleResult(t))

	require.Len(t, rep.Sections, 7)
	for i, k := range AllSections() {
		assert.Equal(t, k, rep.Sections[i].Kind)
		assert.False(t, rep.Sections[i].Failed, "section %s", k)
		assert.NotContains(t, rep.Sections[i].Body, PlaceholderPrefix)
	}
	assert.Equal(t, 6, rep.Succeeded)
	assert.Equal(t, 6, rep.Total)
	assert.Equal(t, "铜 (CU) 期货投资分析报告", rep.Title())

	assert.Equal(t, "铜价短期偏强，建议轻仓做多。", rep.Section(SectionExecutiveSummary).Body)
	assert.Contains(t, rep.Section(SectionSentiment).Body, "**整体情绪**: 看涨 (强度 7/10)")
	assert.Contains(t, rep.Section(SectionNews).Body, "### 新闻分析")

	tech := rep.Section(SectionTechnical).Body
	assert.Contains(t, tech, "| MA5 |")
	assert.Contains(t, tech, "### 分析师解读")
	assert.Less(t, strings.Index(tech, "| 指标 | 数值 |"), strings.Index(tech, "基本面分析正文"))

	combined := rep.Section(SectionCombined).Body
	assert.Contains(t, combined, "### 多空对比")
	assert.Contains(t, combined, "### 看涨观点 (Bull Case)")
	assert.Contains(t, combined, "看涨分析正文")
	assert.Contains(t, combined, "### 看跌观点 (Bear Case)")
	assert.Less(t, strings.Index(combined, "Bull Case"), strings.Index(combined, "Bear Case"))

	rec := rep.Section(SectionRecommendation).Body
	assert.Contains(t, rec, "**做多**")
	assert.Contains(t, rec, "65%")
	assert.Contains(t, rec, "- 美元走强")

	assert.Equal(t, RiskDisclosure, rep.Section(SectionRiskDisclosure).Body)
}

func TestBuild_FailuresBecomePlaceholders(t *testing.T) {
	res := sampleResult(t)
	res.Block(agent.BlockNews).Error = "新闻分析出错: rate limit exceeded"
	res.Block(agent.BlockBullish).Content = "  "
	res.Block(agent.BlockSummary).Error = "综合分析出错: context deadline exceeded"
	res.Block(agent.BlockSummary).Content = ""
	res.Synthesis = nil
	res.Errors = []string{"新闻分析出错: rate limit exceeded", "综合分析出错: context deadline exceeded"}

	rep := Build(res)
	require.Len(t, rep.Sections, 7)
	assert.Equal(t, 3, rep.Succeeded)

	assert.True(t, rep.Section(SectionExecutiveSummary).Failed)
	assert.Equal(t, Placeholder("综合分析出错: context deadline exceeded"), rep.Section(SectionExecutiveSummary).Body)
	assert.Equal(t, "> ⚠️ 该部分生成失败: 新闻分析出错: rate limit exceeded", rep.Section(SectionNews).Body)

	assert.False(t, rep.Section(SectionSentiment).Failed)
	assert.False(t, rep.Section(SectionTechnical).Failed)

	combined := rep.Section(SectionCombined)
	assert.True(t, combined.Failed)
	assert.Contains(t, combined.Body, Placeholder("模型返回内容为空"))
	assert.Contains(t, combined.Body, "看跌分析正文")

	assert.True(t, rep.Section(SectionRecommendation).Failed)
	assert.True(t, strings.HasPrefix(rep.Section(SectionRecommendation).Body, PlaceholderPrefix))
	assert.Equal(t, RiskDisclosure, rep.Section(SectionRiskDisclosure).Body)

	assertHeadingsInOrder(t, rep.Markdown())
}

func TestBuild_NoSnapshot(t *testing.T) {
	res := sampleResult(t)
	res.Snapshot = nil
	res.Errors = []string{"行情数据获取失败: no data for cu"}

	tech := Build(res).Section(SectionTechnical)
	assert.True(t, tech.Failed)
	assert.Contains(t, tech.Body, Placeholder("行情数据获取失败: no data for cu"))
	assert.Contains(t, tech.Body, "基本面分析正文")
}

func TestBuild_UnstructuredSynthesis(t *testing.T) {
	res := sampleResult(t)
	res.Synthesis = &agent.Synthesis{ExecutiveSummary: "模型未按格式输出的摘要", CombinedAnalysis: "全文"}

	rep := Build(res)
	assert.False(t, rep.Section(SectionExecutiveSummary).Failed)
	assert.Equal(t, Placeholder("综合分析未给出结构化投资建议"), rep.Section(SectionRecommendation).Body)
}

func TestMarkdown(t *testing.T) {
	md := Build(sampleResult(t)).Markdown()

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "# 铜 (CU) 期货投资分析报告\n")
	assert.Contains(t, md, "- **生成时间**: 2026-10-19 15:30:00\n")
	assert.Contains(t, md, "- **完成步骤**: 6/6\n")
	assert.True(t, strings.HasSuffix(md, Footer+"\n"))
	assertHeadingsInOrder(t, md)

	fm, err := ParseFrontMatter([]byte(md))
	require.NoError(t, err)
	assert.Equal(t, "run-1", fm.RunID)
	assert.Equal(t, "cu", fm.Symbol)
	assert.Equal(t, "铜", fm.Name)
	assert.Equal(t, "SHFE", fm.Exchange)
	assert.Equal(t, "deepseek-chat", fm.Model)
	assert.Equal(t, "2026-10-19T15:30:00+08:00", fm.GeneratedAt)
	assert.Equal(t, "bullish", fm.Sentiment)
	assert.Equal(t, "buy", fm.Action)
	assert.Equal(t, 6, fm.Succeeded)
}

func TestParseFrontMatter_Invalid(t *testing.T) {
	_, err := ParseFrontMatter([]byte("# no header"))
	assert.Error(t, err)
	_, err = ParseFrontMatter([]byte("---\nrun_id: x\n"))
	assert.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "> ⚠️ 该部分生成失败: boom", Placeholder("boom"))
	assert.Equal(t, "> ⚠️ 该部分生成失败: 未知原因", Placeholder("  "))
	assert.Equal(t, "> ⚠️ 该部分生成失败: a b", Placeholder("a\nb"))
}

// ════════════════════════════════════════════════════════════════════
// Markdown helpers
// ════════════════════════════════════════════════════════════════════

func TestIndicatorTable(t *testing.T) {
	snap, err := technical.Compute(copper, sampleBars(30), technical.DefaultOptions())
	require.NoError(t, err)

	table := IndicatorTable(snap)
	assert.Equal(t, table, IndicatorTable(snap))
	for _, want := range []string{"| MA5 |", "| MA30 |", "| RSI(14) |", "| 年化波动率 |", "| 趋势判断 |", "共 30 个交易日"} {
		assert.Contains(t, table, want)
	}
}

func TestIndicatorTable_Insufficient(t *testing.T) {
	snap, err := technical.Compute(copper, sampleBars(8), technical.DefaultOptions())
	require.NoError(t, err)

	table := IndicatorTable(snap)
	assert.Contains(t, table, "| MA20 | insufficient data |")
	assert.Contains(t, table, "| MACD / Signal / Histogram | insufficient data / insufficient data / insufficient data |")
}

func TestDemoteHeadings(t *testing.T) {
	in := "# 标题\n正文\n```\n# 代码\n```\n###### 深层\n#话题"
	want := "### 标题\n正文\n```\n# 代码\n```\n###### 深层\n#话题"
	assert.Equal(t, want, demoteHeadings(in))
}

func TestFileSafe(t *testing.T) {
	assert.Equal(t, "铜", fileSafe("铜"))
	assert.Equal(t, "沪铜-主力", fileSafe("沪铜 主力"))
	assert.Equal(t, "a-b-c", fileSafe("a/b\\c"))
	assert.Equal(t, "futures", fileSafe(" "))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42.0s", FormatDuration(42*time.Second))
	assert.Equal(t, "1.5m", FormatDuration(90*time.Second))
	assert.Equal(t, "2.0h", FormatDuration(2*time.Hour))
}

// ════════════════════════════════════════════════════════════════════
// Writer
// ════════════════════════════════════════════════════════════════════

func TestWriterSave(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(WriterConfig{Dir: filepath.Join(dir, "reports"), Split: true, HTML: true})
	rep := Build(sampleResult(t))

	saved, err := w.Save(context.Background(), rep)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "reports", "CU_铜_20261019_153000.md"), saved.Markdown)
	data, err := os.ReadFile(saved.Markdown)
	require.NoError(t, err)
	assert.Equal(t, rep.Markdown(), string(data))

	require.Len(t, saved.Blocks, 6)
	assert.Equal(t, filepath.Join(dir, "reports", "news_铜_20261019_153000.md"), saved.Blocks[0])
	news, err := os.ReadFile(saved.Blocks[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(news), "# 期货新闻分析报告\n"))
	assert.Contains(t, string(news), "新闻分析正文")

	require.NotEmpty(t, saved.HTML)
	_, err = os.Stat(saved.HTML)
	assert.NoError(t, err)
	assert.Empty(t, saved.PDF)
}

func TestWriterSave_SkipsFailedBlocks(t *testing.T) {
	res := sampleResult(t)
	res.Block(agent.BlockNews).Error = "boom"

	saved, err := NewWriter(WriterConfig{Dir: t.TempDir(), Split: true}).Save(context.Background(), Build(res))
	require.NoError(t, err)
	assert.Len(t, saved.Blocks, 5)
	assert.Empty(t, saved.HTML)
}

func TestWriterSave_PDFWithoutEngine(t *testing.T) {
	noEngine(t)
	saved, err := NewWriter(WriterConfig{Dir: t.TempDir(), PDF: true}).Save(context.Background(), Build(sampleResult(t)))
	require.NoError(t, err)
	assert.Empty(t, saved.PDF)
	assert.NotEmpty(t, saved.Markdown)
}

func TestNewWriter_DefaultDir(t *testing.T) {
	assert.Equal(t, "reports", NewWriter(WriterConfig{}).Dir())
}

// ════════════════════════════════════════════════════════════════════
// HTML / Charts / PDF
// ════════════════════════════════════════════════════════════════════

func TestHTML(t *testing.T) {
	res := sampleResult(t)
	res.Block(agent.BlockNews).Content = "<script>alert(1)</script>\n\n**要点**: 库存下降"

	page, err := Build(res).HTML()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<svg")
	assert.Contains(t, page, "RSI(14)")
	assert.Contains(t, page, "执行摘要 (Executive Summary)")
	assert.Contains(t, page, "<strong>要点</strong>")
	assert.Contains(t, page, "<table>")
	assert.NotContains(t, page, "alert(1)")
}

func TestHTML_FailedSectionMarked(t *testing.T) {
	res := sampleResult(t)
	res.Block(agent.BlockNews).Error = "boom"

	page, err := Build(res).HTML()
	require.NoError(t, err)
	assert.Contains(t, page, `class="section failed" id="news"`)
	assert.Contains(t, page, "<blockquote>")
}

func TestCandlestickChart(t *testing.T) {
	bars := sampleBars(30)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	overlays := MovingAverageOverlays(closes, 5, 20, 60)
	require.Len(t, overlays, 2)

	svg := CandlestickChart(bars, overlays, ChartConfig{Title: "铜 日K线"})
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, "铜 日K线")
	assert.Contains(t, svg, "MA5")
	assert.Contains(t, svg, "MA20")
	assert.Contains(t, svg, "09-01")
}

func TestCandlestickChart_Empty(t *testing.T) {
	svg := CandlestickChart(nil, nil, DefaultChartConfig())
	assert.Contains(t, svg, "暂无行情数据")
}

func TestGaugeChart(t *testing.T) {
	assert.Contains(t, GaugeChart(150, "RSI", 0, nil), ">100</text>")
	assert.Contains(t, GaugeChart(-5, "RSI", 0, nil), ">0</text>")
	assert.Contains(t, GaugeChart(80, "RSI", 200, RSIZones), colorUp)
	assert.Contains(t, GaugeChart(20, "RSI", 200, RSIZones), colorDown)
	assert.Contains(t, GaugeChart(50, "a<b", 200, nil), "a&lt;b")
}

func noEngine(t *testing.T) {
	t.Helper()
	orig := lookPath
	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	t.Cleanup(func() { lookPath = orig })
}

func TestGeneratePDF_NoEngine(t *testing.T) {
	noEngine(t)
	assert.Equal(t, EngineNone, DetectPDFEngine())
	assert.False(t, IsPDFSupported())

	err := GeneratePDF(context.Background(), "<html></html>", DefaultPDFConfig(filepath.Join(t.TempDir(), "r.pdf")))
	assert.ErrorIs(t, err, ErrNoPDFEngine)
}

func TestGeneratePDF_Validation(t *testing.T) {
	assert.Error(t, GeneratePDF(context.Background(), "", PDFConfig{}))

	cfg := DefaultPDFConfig("out.pdf")
	cfg.Engine = "prince"
	assert.ErrorContains(t, GeneratePDF(context.Background(), "", cfg), "unsupported PDF engine")
}

func TestWriteTempHTML(t *testing.T) {
	path, err := writeTempHTML("<p>x</p>")
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(data))
	assert.True(t, strings.HasSuffix(path, ".html"))
}
