package report

import (
	"fmt"
	"strings"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// IndicatorTable renders the snapshot as a markdown table. The output only
// depends on the snapshot.
func IndicatorTable(s *technical.Snapshot) string {
	var sb strings.Builder
	row := func(name, value string) {
		sb.WriteString("| " + name + " | " + value + " |\n")
	}

	sb.WriteString(fmt.Sprintf("数据区间: %s 至 %s，共 %d 个交易日\n\n", s.From, s.To, s.Stats.Sessions))
	sb.WriteString("| 指标 | 数值 |\n|---|---|\n")

	l := s.Latest
	row("最新收盘 ("+l.Date+")", fmt.Sprintf("%.2f", l.Close))
	row("涨跌 / 涨跌幅", fmt.Sprintf("%+.2f / %s", l.Change, utils.FormatSignedPct(l.ChangePct)))
	row("开盘 / 最高 / 最低", fmt.Sprintf("%.2f / %.2f / %.2f", l.Open, l.High, l.Low))
	row("成交量", utils.FormatVolume(l.Volume))
	if l.OpenInterest > 0 {
		row("持仓量", utils.FormatVolume(l.OpenInterest))
	}
	for _, ma := range s.MovingAverages {
		row(fmt.Sprintf("MA%d", ma.Window), ma.Value.Format(2))
	}
	row(fmt.Sprintf("RSI(%d)", s.RSIPeriod), s.RSI.Format(2))
	row("MACD / Signal / Histogram", fmt.Sprintf("%s / %s / %s",
		s.MACD.MACD.Format(4), s.MACD.Signal.Format(4), s.MACD.Histogram.Format(4)))
	row("年化波动率", percent(s.Volatility))
	row("区间均价", fmt.Sprintf("%.2f", s.Stats.MeanClose))
	row("区间最高 / 最低", fmt.Sprintf("%.2f / %.2f", s.Stats.HighestHigh, s.Stats.LowestLow))
	row("区间振幅", fmt.Sprintf("%.2f%%", s.Stats.AmplitudePct))
	row("日均成交量", utils.FormatVolume(s.Stats.MeanVolume))
	row("支撑 / 阻力", fmt.Sprintf("%.2f / %.2f", s.Levels.Support, s.Levels.Resistance))
	row("枢轴点 (S1 / P / R1)", fmt.Sprintf("%.2f / %.2f / %.2f", s.Levels.S1, s.Levels.Pivot, s.Levels.R1))
	row("趋势判断", s.Trend)

	return strings.TrimRight(sb.String(), "\n")
}

func percent(i technical.Indicator) string {
	if i.Insufficient {
		return i.String()
	}
	return i.String() + "%"
}

func sentimentLine(r *agent.SentimentReading) string {
	label := r.Label
	if label == "" {
		label = r.Level.Label()
	}
	if r.Intensity > 0 {
		return fmt.Sprintf("**整体情绪**: %s (强度 %d/10)", label, r.Intensity)
	}
	return fmt.Sprintf("**整体情绪**: %s", label)
}

func recommendationBody(syn *agent.Synthesis) string {
	rec := syn.Recommendation
	var sb strings.Builder

	sb.WriteString("| 项目 | 内容 |\n|---|---|\n")
	sb.WriteString(fmt.Sprintf("| 操作建议 | **%s** |\n", rec.Action.Label()))
	sb.WriteString(fmt.Sprintf("| 信心度 | %.0f%% |\n", rec.Confidence*100))
	if rec.Horizon != "" {
		sb.WriteString(fmt.Sprintf("| 投资周期 | %s |\n", tableCell(rec.Horizon)))
	}
	if rec.Rationale != "" {
		sb.WriteString("\n**理由**: " + rec.Rationale + "\n")
	}
	if len(syn.RiskFactors) > 0 {
		sb.WriteString("\n**主要风险**:\n\n")
		for _, f := range syn.RiskFactors {
			sb.WriteString("- " + f + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return strings.ReplaceAll(s, "\n", " ")
}

// demoteHeadings pushes ATX headings in LLM output two levels down so they
// nest under the "##" section headings. Fenced code is left alone.
func demoteHeadings(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	fenced := false
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "```") {
			fenced = !fenced
			continue
		}
		if fenced || !strings.HasPrefix(trimmed, "#") {
			continue
		}
		level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
		rest := trimmed[level:]
		if level > 6 || (rest != "" && rest[0] != ' ') {
			continue
		}
		level += 2
		if level > 6 {
			level = 6
		}
		lines[i] = strings.Repeat("#", level) + rest
	}
	return strings.Join(lines, "\n")
}
