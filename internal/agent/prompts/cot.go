package prompts

import (
	"fmt"
	"strings"
)

// ── Task Templates ──
//
// One template per workflow step. Missing upstream blocks are replaced by
// an explicit "未能完成" marker so later steps know what is absent.

// Block headings used when feeding earlier reports to later steps.
const (
	HeadingNews        = "新闻分析报告"
	HeadingSentiment   = "情绪分析报告"
	HeadingFundamental = "基本面技术分析报告"
	HeadingBullish     = "看涨分析报告（多头视角）"
	HeadingBearish     = "看跌分析报告（空头视角）"
)

const separator = "==================="

// NewsTask is the user task for the News Analyst.
func NewsTask(keyword string) string {
	return fmt.Sprintf("分析%s期货市场的新闻资讯", keyword)
}

// SentimentTask is the user task for the Sentiment Analyst.
func SentimentTask(keyword string) string {
	return fmt.Sprintf("请分析%s期货市场的整体情绪。考虑当前市场环境、投资者心态、资金流向等因素。", keyword)
}

// FundamentalTask is the user task for the Fundamental Analyst.
func FundamentalTask(keyword, symbol string) string {
	return fmt.Sprintf("请分析%s(%s)期货的技术面数据，包括价格走势、成交量、持仓量、技术指标等。", keyword, symbol)
}

// PhaseOne carries the texts of the first three reports. Empty means the
// step did not complete.
type PhaseOne struct {
	News        string
	Sentiment   string
	Fundamental string
}

// DebateTask is the user task for the bullish (bull=true) or bearish analyst.
func DebateTask(keyword, symbol string, bull bool, in PhaseOne) string {
	side := "看跌"
	if bull {
		side = "看涨"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "请基于以下%s(%s)期货的分析报告，给出专业的%s分析：\n\n", keyword, symbol, side)
	writeBlock(&sb, HeadingNews, in.News, "新闻分析未能完成")
	writeBlock(&sb, HeadingSentiment, in.Sentiment, "情绪分析未能完成")
	writeBlock(&sb, HeadingFundamental, in.Fundamental, "基本面分析未能完成")
	return sb.String()
}

// SummaryTask is the user task for the Summary Analyst.
func SummaryTask(keyword, symbol string, in PhaseOne, bullish, bearish string) string {
	var sb strings.Builder
	sb.WriteString("请基于以下五个分析报告生成综合投资报告：\n\n")
	fmt.Fprintf(&sb, "分析品种: %s (%s)\n\n", keyword, symbol)
	writeBlock(&sb, HeadingNews, in.News, "新闻分析未能完成")
	writeBlock(&sb, HeadingSentiment, in.Sentiment, "情绪分析未能完成")
	writeBlock(&sb, HeadingFundamental, in.Fundamental, "基本面分析未能完成")
	writeBlock(&sb, HeadingBullish, bullish, "看涨分析未能完成")
	writeBlock(&sb, HeadingBearish, bearish, "看跌分析未能完成")
	sb.WriteString("请整合以上所有信息，特别关注看涨和看跌分析师的对立观点，形成平衡的投资判断，按要求输出 JSON。\n")
	return sb.String()
}

func writeBlock(sb *strings.Builder, heading, content, missing string) {
	sb.WriteString(separator + "\n")
	fmt.Fprintf(sb, "【%s】\n", heading)
	sb.WriteString(separator + "\n")
	if strings.TrimSpace(content) == "" {
		content = missing
	}
	sb.WriteString(content)
	sb.WriteString("\n\n")
}
