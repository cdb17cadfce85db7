package agent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/seenimoa/futuresagent/internal/agent/prompts"
	"github.com/seenimoa/futuresagent/internal/datasource"
	"github.com/seenimoa/futuresagent/internal/llm"
	"github.com/seenimoa/futuresagent/pkg/models"
)

// SentimentAgent is the Sentiment Analyst. It rates the market mood on
// the 7-level scale with an intensity from 1 to 10.
type SentimentAgent struct {
	*BaseAgent
	searcher datasource.Searcher
}

// NewSentimentAgent creates a Sentiment Analyst agent.
func NewSentimentAgent(provider llm.LLMProvider, searcher datasource.Searcher, limit int, opts *llm.ChatOptions, maxIter int) *SentimentAgent {
	agent := &SentimentAgent{searcher: searcher}
	agent.BaseAgent = NewBaseAgent(BaseAgentConfig{
		Name:         prompts.AgentSentiment,
		Role:         "Sentiment Analyst — market mood, drivers, intensity",
		SystemPrompt: prompts.SentimentSystemPrompt,
		Provider:     provider,
		Tools:        []llm.Tool{webSearchTool(searcher, limit)},
		ChatOptions:  opts,
		MaxToolIter:  maxIter,
	})
	return agent
}

// Analyze runs the sentiment task for a keyword.
func (a *SentimentAgent) Analyze(ctx context.Context, keyword string) (*AgentResult, error) {
	return a.Process(ctx, prompts.SentimentTask(keyword))
}

// SentimentReading is the headline judgement pulled out of a sentiment block.
type SentimentReading struct {
	Level     models.SentimentLevel `json:"level" yaml:"level"`
	Label     string                `json:"label" yaml:"label"`
	Intensity int                   `json:"intensity,omitempty" yaml:"intensity,omitempty"`
}

var (
	overallRe   = regexp.MustCompile(`整体情绪\**\s*[:：]\s*\**\s*\[?([^\s\]*\n/]+)`)
	intensityRe = regexp.MustCompile(`情绪强度\**\s*[:：]\s*\**\s*\[?(\d{1,2})`)
)

// ExtractSentiment reads the "整体情绪" and "情绪强度" lines that the
// sentiment prompt asks for. ok is false when no known level is found.
func ExtractSentiment(text string) (SentimentReading, bool) {
	m := overallRe.FindStringSubmatch(text)
	if m == nil {
		return SentimentReading{}, false
	}
	label := strings.Trim(m[1], "*[]（）() ")
	level, ok := models.ParseSentimentLevel(label)
	if !ok {
		return SentimentReading{}, false
	}
	r := SentimentReading{Level: level, Label: level.Label()}
	if im := intensityRe.FindStringSubmatch(text); im != nil {
		if n, err := strconv.Atoi(im[1]); err == nil && n >= 1 && n <= 10 {
			r.Intensity = n
		}
	}
	return r, true
}
