package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/pkg/models"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Sections
// ════════════════════════════════════════════════════════════════════

// SectionKind identifies one top-level section of the report.
type SectionKind string

const (
	SectionExecutiveSummary SectionKind = "executive_summary"
	SectionNews             SectionKind = "news"
	SectionSentiment        SectionKind = "sentiment"
	SectionTechnical        SectionKind = "technical"
	SectionCombined         SectionKind = "combined"
	SectionRecommendation   SectionKind = "recommendation"
	SectionRiskDisclosure   SectionKind = "risk_disclosure"
)

// AllSections returns all report sections in display order.
func AllSections() []SectionKind {
	return []SectionKind{
		SectionExecutiveSummary,
		SectionNews,
		SectionSentiment,
		SectionTechnical,
		SectionCombined,
		SectionRecommendation,
		SectionRiskDisclosure,
	}
}

// Title returns the bilingual heading text of the section.
func (k SectionKind) Title() string {
	switch k {
	case SectionExecutiveSummary:
		return "执行摘要 (Executive Summary)"
	case SectionNews:
		return "新闻分析 (News Analysis)"
	case SectionSentiment:
		return "情绪分析 (Sentiment Analysis)"
	case SectionTechnical:
		return "技术分析 (Technical Analysis)"
	case SectionCombined:
		return "综合分析 (Combined Analysis)"
	case SectionRecommendation:
		return "投资建议 (Recommendation)"
	case SectionRiskDisclosure:
		return "风险提示 (Risk Disclosure)"
	}
	return string(k)
}

// Section is one rendered part of the report. Body is markdown without the
// section heading.
type Section struct {
	Kind   SectionKind `json:"kind"`
	Title  string      `json:"title"`
	Body   string      `json:"body"`
	Failed bool        `json:"failed,omitempty"`
}

// PlaceholderPrefix starts the body of a section whose upstream step failed.
const PlaceholderPrefix = "> ⚠️ 该部分生成失败: "

// Placeholder renders the failure marker for a section.
func Placeholder(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "未知原因"
	}
	return PlaceholderPrefix + strings.ReplaceAll(reason, "\n", " ")
}

// RiskDisclosure is appended to every report unchanged.
const RiskDisclosure = `1. 本报告由人工智能模型基于公开行情数据与网络新闻自动生成，仅供研究参考，不构成任何投资建议或交易依据。
2. 期货交易采用保证金制度，具有高杠杆特征，价格波动可能导致亏损超过初始保证金。
3. 报告中的技术指标基于历史数据计算，历史表现不代表未来走势；新闻与情绪判断可能存在滞后或偏差。
4. 投资者应结合自身风险承受能力独立决策，并严格执行止损等风险控制措施。`

// Footer closes the markdown document.
const Footer = "*本报告由 futuresagent 自动生成，仅供参考，不构成投资建议。*"

// ════════════════════════════════════════════════════════════════════
// Report
// ════════════════════════════════════════════════════════════════════

// Report is the assembled document for one run.
type Report struct {
	RunID       string                  `json:"run_id"`
	Symbol      models.Symbol           `json:"symbol"`
	Keyword     string                  `json:"keyword"`
	Model       string                  `json:"model,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
	Duration    time.Duration           `json:"duration"`
	Sections    []Section               `json:"sections"`
	Succeeded   int                     `json:"succeeded"`
	Total       int                     `json:"total"`
	Errors      []string                `json:"errors,omitempty"`
	Snapshot    *technical.Snapshot     `json:"-"`
	Sentiment   *agent.SentimentReading `json:"sentiment,omitempty"`
	Synthesis   *agent.Synthesis        `json:"-"`
	Blocks      []*agent.Block          `json:"-"`
}

// Section returns the section of the given kind, or nil.
func (r *Report) Section(kind SectionKind) *Section {
	for i := range r.Sections {
		if r.Sections[i].Kind == kind {
			return &r.Sections[i]
		}
	}
	return nil
}

// Title is the document heading, e.g. "铜 (CU) 期货投资分析报告".
func (r *Report) Title() string {
	return fmt.Sprintf("%s (%s) 期货投资分析报告", r.Symbol.Name, strings.ToUpper(r.Symbol.Code))
}

// Build assembles the report from a workflow result. It never fails: every
// missing or failed step becomes a placeholder in its section.
func Build(res *agent.Result) *Report {
	rep := &Report{
		RunID:       res.RunID,
		Symbol:      res.Symbol,
		Keyword:     res.Keyword,
		Model:       res.Model,
		GeneratedAt: res.FinishedAt,
		Duration:    res.Duration(),
		Succeeded:   res.Succeeded(),
		Total:       res.Total(),
		Errors:      append([]string(nil), res.Errors...),
		Snapshot:    res.Snapshot,
		Sentiment:   res.Sentiment,
		Synthesis:   res.Synthesis,
		Blocks:      res.Blocks,
	}
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = time.Now()
	}

	for _, kind := range AllSections() {
		body, failed := buildSection(kind, res)
		rep.Sections = append(rep.Sections, Section{
			Kind:   kind,
			Title:  kind.Title(),
			Body:   strings.TrimSpace(body),
			Failed: failed,
		})
	}
	return rep
}

func buildSection(kind SectionKind, res *agent.Result) (string, bool) {
	summary := res.Block(agent.BlockSummary)
	syn := res.Synthesis

	switch kind {
	case SectionExecutiveSummary:
		if syn != nil && strings.TrimSpace(syn.ExecutiveSummary) != "" {
			return syn.ExecutiveSummary, false
		}
		return Placeholder(blockReason(summary, "综合分析未给出执行摘要")), true

	case SectionNews:
		return blockBody(res.Block(agent.BlockNews))

	case SectionSentiment:
		body, failed := blockBody(res.Block(agent.BlockSentiment))
		if !failed && res.Sentiment != nil {
			body = sentimentLine(res.Sentiment) + "\n\n" + body
		}
		return body, failed

	case SectionTechnical:
		return technicalBody(res)

	case SectionCombined:
		return combinedBody(res)

	case SectionRecommendation:
		if syn == nil || syn.Recommendation == nil {
			return Placeholder(blockReason(summary, "综合分析未给出结构化投资建议")), true
		}
		return recommendationBody(syn), false

	case SectionRiskDisclosure:
		return RiskDisclosure, false
	}
	return "", false
}

// blockBody returns the demoted block text or a placeholder.
func blockBody(b *agent.Block) (string, bool) {
	if !b.OK() {
		return Placeholder(blockReason(b, "")), true
	}
	return demoteHeadings(b.Content), false
}

// blockReason explains why a block produced nothing usable. fallback is
// used when the block itself succeeded but lacked the needed part.
func blockReason(b *agent.Block, fallback string) string {
	switch {
	case b == nil:
		return "步骤未执行"
	case b.Error != "":
		return b.Error
	case strings.TrimSpace(b.Content) == "":
		return "模型返回内容为空"
	case fallback != "":
		return fallback
	}
	return "未知原因"
}

func technicalBody(res *agent.Result) (string, bool) {
	var sb strings.Builder
	failed := false

	sb.WriteString("### 指标概览\n\n")
	if res.Snapshot != nil {
		sb.WriteString(IndicatorTable(res.Snapshot))
	} else {
		sb.WriteString(Placeholder(marketError(res.Errors)))
		failed = true
	}

	sb.WriteString("\n\n### 分析师解读\n\n")
	body, blockFailed := blockBody(res.Block(agent.BlockFundamental))
	sb.WriteString(body)

	return sb.String(), failed || blockFailed
}

// marketError picks the market-data failure from the run errors.
func marketError(errs []string) string {
	for _, e := range errs {
		if strings.HasPrefix(e, "行情数据") {
			return e
		}
	}
	return "行情数据不可用"
}

func combinedBody(res *agent.Result) (string, bool) {
	var sb strings.Builder
	failed := false

	if res.Synthesis != nil && strings.TrimSpace(res.Synthesis.CombinedAnalysis) != "" {
		sb.WriteString(demoteHeadings(res.Synthesis.CombinedAnalysis))
	} else {
		sb.WriteString(Placeholder(blockReason(res.Block(agent.BlockSummary), "综合分析未给出综合研判")))
		failed = true
	}

	bull, _ := blockBody(res.Block(agent.BlockBullish))
	bear, _ := blockBody(res.Block(agent.BlockBearish))

	sb.WriteString("\n\n### 看涨观点 (Bull Case)\n\n")
	sb.WriteString(bull)
	sb.WriteString("\n\n### 看跌观点 (Bear Case)\n\n")
	sb.WriteString(bear)

	return sb.String(), failed
}

// Markdown renders the complete document with YAML front matter.
func (r *Report) Markdown() string {
	var sb strings.Builder

	if fm, err := r.frontMatter(); err == nil {
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# " + r.Title() + "\n\n")
	sb.WriteString(fmt.Sprintf("- **交易所**: %s\n", r.Symbol.Exchange))
	sb.WriteString(fmt.Sprintf("- **关键词**: %s\n", r.Keyword))
	sb.WriteString(fmt.Sprintf("- **生成时间**: %s\n", utils.FormatDateTimeCST(r.GeneratedAt)))
	if r.Model != "" {
		sb.WriteString(fmt.Sprintf("- **分析模型**: %s\n", r.Model))
	}
	sb.WriteString(fmt.Sprintf("- **完成步骤**: %d/%d\n", r.Succeeded, r.Total))

	for _, s := range r.Sections {
		sb.WriteString("\n## " + s.Title + "\n\n")
		sb.WriteString(s.Body)
		sb.WriteString("\n")
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(Footer + "\n")
	return sb.String()
}

// FrontMatter is the YAML header of a saved report.
type FrontMatter struct {
	RunID       string   `yaml:"run_id"`
	Symbol      string   `yaml:"symbol"`
	Name        string   `yaml:"name"`
	Exchange    string   `yaml:"exchange"`
	Keyword     string   `yaml:"keyword"`
	GeneratedAt string   `yaml:"generated_at"`
	Model       string   `yaml:"model,omitempty"`
	Succeeded   int      `yaml:"succeeded"`
	Total       int      `yaml:"total"`
	Sentiment   string   `yaml:"sentiment,omitempty"`
	Action      string   `yaml:"action,omitempty"`
	Errors      []string `yaml:"errors,omitempty"`
}

func (r *Report) frontMatter() ([]byte, error) {
	fm := FrontMatter{
		RunID:       r.RunID,
		Symbol:      r.Symbol.Code,
		Name:        r.Symbol.Name,
		Exchange:    string(r.Symbol.Exchange),
		Keyword:     r.Keyword,
		GeneratedAt: r.GeneratedAt.In(utils.CST).Format(time.RFC3339),
		Model:       r.Model,
		Succeeded:   r.Succeeded,
		Total:       r.Total,
		Errors:      r.Errors,
	}
	if r.Sentiment != nil {
		fm.Sentiment = string(r.Sentiment.Level)
	}
	if r.Synthesis != nil && r.Synthesis.Recommendation != nil {
		fm.Action = string(r.Synthesis.Recommendation.Action)
	}
	return yaml.Marshal(fm)
}

// ParseFrontMatter reads the YAML header of a saved report.
func ParseFrontMatter(doc []byte) (*FrontMatter, error) {
	const delim = "---\n"
	if !bytes.HasPrefix(doc, []byte(delim)) {
		return nil, fmt.Errorf("report has no front matter")
	}
	rest := doc[len(delim):]
	end := bytes.Index(rest, []byte("\n"+delim))
	if end < 0 {
		return nil, fmt.Errorf("unterminated front matter")
	}
	var fm FrontMatter
	if err := yaml.Unmarshal(rest[:end+1], &fm); err != nil {
		return nil, fmt.Errorf("parsing front matter: %w", err)
	}
	return &fm, nil
}

// ════════════════════════════════════════════════════════════════════
// Utility
// ════════════════════════════════════════════════════════════════════

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
