package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/seenimoa/futuresagent/internal/agent/prompts"
	"github.com/seenimoa/futuresagent/internal/llm"
	"github.com/seenimoa/futuresagent/pkg/models"
)

// Synthesis is the structured output of the Summary Analyst.
type Synthesis struct {
	ExecutiveSummary string                 `json:"executive_summary"`
	CombinedAnalysis string                 `json:"combined_analysis"`
	Recommendation   *models.Recommendation `json:"recommendation,omitempty"`
	RiskFactors      []string               `json:"risk_factors,omitempty"`
	Structured       bool                   `json:"structured"` // false when the model ignored the JSON format
}

// SummaryAgent is the Summary Analyst that merges all five blocks.
type SummaryAgent struct {
	*BaseAgent
}

// NewSummaryAgent creates the Summary Analyst.
func NewSummaryAgent(provider llm.LLMProvider, opts *llm.ChatOptions) *SummaryAgent {
	return &SummaryAgent{
		BaseAgent: NewBaseAgent(BaseAgentConfig{
			Name:         prompts.AgentSummary,
			Role:         "Summary Analyst — balanced synthesis and final recommendation",
			SystemPrompt: prompts.SummarySystemPrompt,
			Provider:     provider,
			ChatOptions:  opts,
			MaxToolIter:  1,
		}),
	}
}

// Summarize runs the synthesis task and parses its output.
func (a *SummaryAgent) Summarize(ctx context.Context, keyword string, sym models.Symbol,
	in prompts.PhaseOne, bullish, bearish string) (*AgentResult, *Synthesis, error) {

	res, err := a.Process(ctx, prompts.SummaryTask(keyword, sym.Code, in, bullish, bearish))
	if err != nil {
		return res, nil, err
	}
	return res, ParseSynthesis(res.Content), nil
}

// ParseSynthesis extracts the JSON synthesis from the model output. Text
// that is not valid JSON becomes the combined analysis and its first
// paragraph the executive summary.
func ParseSynthesis(content string) *Synthesis {
	if raw, ok := extractJSONObject(content); ok {
		var parsed struct {
			ExecutiveSummary string   `json:"executive_summary"`
			CombinedAnalysis string   `json:"combined_analysis"`
			RiskFactors      []string `json:"risk_factors"`
			Recommendation   *struct {
				Action     string  `json:"action"`
				Confidence float64 `json:"confidence"`
				Horizon    string  `json:"horizon"`
				Rationale  string  `json:"rationale"`
			} `json:"recommendation"`
		}
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil &&
			(parsed.ExecutiveSummary != "" || parsed.CombinedAnalysis != "") {
			s := &Synthesis{
				ExecutiveSummary: strings.TrimSpace(parsed.ExecutiveSummary),
				CombinedAnalysis: strings.TrimSpace(parsed.CombinedAnalysis),
				RiskFactors:      parsed.RiskFactors,
				Structured:       true,
			}
			if r := parsed.Recommendation; r != nil && r.Action != "" {
				conf := r.Confidence
				if conf > 1 && conf <= 100 {
					conf /= 100 // percentages
				}
				if conf < 0 || conf > 1 {
					conf = 0
				}
				s.Recommendation = &models.Recommendation{
					Action:     models.ParseAction(strings.TrimSpace(r.Action)),
					Confidence: conf,
					Horizon:    r.Horizon,
					Rationale:  strings.TrimSpace(r.Rationale),
				}
			}
			return s
		}
	}

	content = strings.TrimSpace(content)
	return &Synthesis{
		ExecutiveSummary: firstParagraph(content),
		CombinedAnalysis: content,
	}
}

// firstParagraph returns the first non-heading paragraph of markdown text.
func firstParagraph(text string) string {
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") {
			continue
		}
		return para
	}
	return ""
}
