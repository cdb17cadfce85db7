package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seenimoa/futuresagent/internal/agent/prompts"
	"github.com/seenimoa/futuresagent/internal/datasource"
	"github.com/seenimoa/futuresagent/internal/llm"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// NewsAgent is the News Analyst. It searches the web for recent news on
// the variety and tags every item as bullish, bearish or neutral.
type NewsAgent struct {
	*BaseAgent
	searcher datasource.Searcher
	limit    int
}

// NewNewsAgent creates a News Analyst agent.
func NewNewsAgent(provider llm.LLMProvider, searcher datasource.Searcher, limit int, opts *llm.ChatOptions, maxIter int) *NewsAgent {
	agent := &NewsAgent{searcher: searcher, limit: limit}
	agent.BaseAgent = NewBaseAgent(BaseAgentConfig{
		Name:         prompts.AgentNews,
		Role:         "News Analyst — web news collection and impact tagging",
		SystemPrompt: prompts.NewsSystemPrompt,
		Provider:     provider,
		Tools:        []llm.Tool{webSearchTool(searcher, limit)},
		ChatOptions:  opts,
		MaxToolIter:  maxIter,
	})
	return agent
}

// Analyze runs the news task for a keyword.
func (a *NewsAgent) Analyze(ctx context.Context, keyword string) (*AgentResult, error) {
	return a.Process(ctx, prompts.NewsTask(keyword))
}

// ── Shared web_search tool ──

type searchHit struct {
	Title     string `json:"title"`
	Source    string `json:"source,omitempty"`
	URL       string `json:"url,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
	Published string `json:"published,omitempty"`
}

func webSearchTool(searcher datasource.Searcher, defaultLimit int) llm.Tool {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return llm.Tool{
		Name:        "web_search",
		Description: "搜索互联网上的最新新闻和资讯，返回标题、来源、链接、摘要和发布时间",
		Parameters: llm.ObjectSchema("搜索参数",
			map[string]*llm.JSONSchema{
				"query": llm.StringProp("搜索关键词，例如：铜 期货 最新消息"),
				"limit": llm.IntProp(fmt.Sprintf("返回结果数量（默认 %d）", defaultLimit)),
			},
			"query",
		),
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var params struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return "", fmt.Errorf("parse args: %w", err)
			}
			params.Query = strings.TrimSpace(params.Query)
			if params.Query == "" {
				return "", fmt.Errorf("query is required")
			}
			if params.Limit <= 0 || params.Limit > 50 {
				params.Limit = defaultLimit
			}

			items, err := searcher.Search(ctx, params.Query, params.Limit)
			if err != nil {
				return "", fmt.Errorf("search %q: %w", params.Query, err)
			}
			if len(items) == 0 {
				return fmt.Sprintf("未找到与 %q 相关的结果", params.Query), nil
			}

			hits := make([]searchHit, 0, len(items))
			for _, it := range items {
				h := searchHit{Title: it.Title, Source: it.Source, URL: it.URL, Snippet: it.Snippet}
				if !it.PublishedAt.IsZero() {
					h.Published = utils.FormatDateTimeCST(it.PublishedAt)
				}
				hits = append(hits, h)
			}
			out, _ := json.MarshalIndent(map[string]any{
				"query":   params.Query,
				"count":   len(hits),
				"results": hits,
			}, "", "  ")
			return string(out), nil
		},
	}
}
