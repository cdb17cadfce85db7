package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seenimoa/futuresagent/internal/agent/prompts"
	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/internal/datasource"
	"github.com/seenimoa/futuresagent/internal/llm"
	"github.com/seenimoa/futuresagent/pkg/models"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// SnapshotLoader fetches history for a symbol and computes its indicators.
type SnapshotLoader func(ctx context.Context, sym models.Symbol) (*technical.Snapshot, error)

// NewSnapshotLoader returns a loader that reads `lookback` daily sessions
// from md and runs technical.Compute on them.
func NewSnapshotLoader(md datasource.MarketData, lookback int, opts technical.Options) SnapshotLoader {
	return func(ctx context.Context, sym models.Symbol) (*technical.Snapshot, error) {
		bars, err := md.DailyBars(ctx, sym, lookback)
		if err != nil {
			return nil, fmt.Errorf("%s daily bars: %w", sym.Code, err)
		}
		return technical.Compute(sym, bars, opts)
	}
}

// FundamentalAgent is the Fundamental Analyst. Its input is price data:
// it reads the indicator snapshot through the analyze_futures_data tool.
type FundamentalAgent struct {
	*BaseAgent
	load SnapshotLoader
}

// NewFundamentalAgent creates a Fundamental Analyst agent.
func NewFundamentalAgent(provider llm.LLMProvider, load SnapshotLoader, opts *llm.ChatOptions, maxIter int) *FundamentalAgent {
	agent := &FundamentalAgent{load: load}
	agent.BaseAgent = NewBaseAgent(BaseAgentConfig{
		Name:         prompts.AgentFundamental,
		Role:         "Fundamental Analyst — price, volume, open interest and indicators",
		SystemPrompt: prompts.FundamentalSystemPrompt,
		Provider:     provider,
		Tools:        agent.buildTools(),
		ChatOptions:  opts,
		MaxToolIter:  maxIter,
	})
	return agent
}

// Analyze runs the technical-data task for a symbol.
func (a *FundamentalAgent) Analyze(ctx context.Context, keyword string, sym models.Symbol) (*AgentResult, error) {
	return a.Process(ctx, prompts.FundamentalTask(keyword, sym.Code))
}

func (a *FundamentalAgent) buildTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "analyze_futures_data",
			Description: "获取期货品种主力连续合约的日线行情并计算技术指标：均线、RSI、MACD、年化波动率、区间统计、支撑阻力位",
			Parameters: llm.ObjectSchema("期货数据参数",
				map[string]*llm.JSONSchema{
					"symbol": llm.StringProp("期货品种代码，例如 CU、RB、IF"),
				},
				"symbol",
			),
			Handler: a.handleAnalyzeFuturesData,
		},
	}
}

// ── Tool Handlers ──

func (a *FundamentalAgent) handleAnalyzeFuturesData(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("parse args: %w", err)
	}

	sym, err := datasource.Lookup(params.Symbol)
	if err != nil {
		return "", err
	}
	snap, err := a.load(ctx, sym)
	if err != nil {
		return "", err
	}

	result := map[string]any{
		"symbol":        snap.Symbol,
		"name":          snap.Name,
		"exchange":      snap.Exchange,
		"period":        fmt.Sprintf("%s ~ %s", snap.From, snap.To),
		"market_status": utils.MarketStatus(utils.NowCST(), sym.Financial()),
		"latest":        snap.Latest,
		"moving_avgs":   snap.MovingAverages,
		"rsi":           snap.RSI,
		"rsi_period":    snap.RSIPeriod,
		"macd":          snap.MACD,
		"volatility":    snap.Volatility,
		"stats":         snap.Stats,
		"levels":        snap.Levels,
		"trend":         snap.Trend,
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return string(out), nil
}
