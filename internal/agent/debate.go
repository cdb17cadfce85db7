package agent

import (
	"context"

	"github.com/seenimoa/futuresagent/internal/agent/prompts"
	"github.com/seenimoa/futuresagent/internal/llm"
	"github.com/seenimoa/futuresagent/pkg/models"
)

// DebateAgent argues one side of the bull/bear debate from the phase-one
// reports. It has no tools.
type DebateAgent struct {
	*BaseAgent
	bull bool
}

// NewBullAgent creates the bullish (long-side) analyst.
func NewBullAgent(provider llm.LLMProvider, opts *llm.ChatOptions) *DebateAgent {
	return &DebateAgent{
		bull: true,
		BaseAgent: NewBaseAgent(BaseAgentConfig{
			Name:         prompts.AgentBullish,
			Role:         "Bullish Analyst — long-side arguments and entry levels",
			SystemPrompt: prompts.BullishSystemPrompt,
			Provider:     provider,
			ChatOptions:  opts,
			MaxToolIter:  1,
		}),
	}
}

// NewBearAgent creates the bearish (short-side) analyst.
func NewBearAgent(provider llm.LLMProvider, opts *llm.ChatOptions) *DebateAgent {
	return &DebateAgent{
		BaseAgent: NewBaseAgent(BaseAgentConfig{
			Name:         prompts.AgentBearish,
			Role:         "Bearish Analyst — short-side arguments and risk warnings",
			SystemPrompt: prompts.BearishSystemPrompt,
			Provider:     provider,
			ChatOptions:  opts,
			MaxToolIter:  1,
		}),
	}
}

// Bull reports whether this agent argues the long side.
func (a *DebateAgent) Bull() bool { return a.bull }

// Argue runs the debate task over the phase-one texts.
func (a *DebateAgent) Argue(ctx context.Context, keyword string, sym models.Symbol, in prompts.PhaseOne) (*AgentResult, error) {
	return a.Process(ctx, prompts.DebateTask(keyword, sym.Code, a.bull, in))
}
