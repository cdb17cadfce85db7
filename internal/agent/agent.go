// Package agent implements the LLM agents that write the blocks of a
// futures report, and the orchestrator that runs them in three phases:
// news, sentiment and technical analysis; the bull/bear debate; the
// final synthesis.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/seenimoa/futuresagent/internal/llm"
)

// ── Agent Interface ──

// Agent defines the interface that all report agents implement.
type Agent interface {
	// Name returns the agent's unique identifier (e.g., "news_analyst").
	Name() string

	// Role returns a human-readable description of the agent's role.
	Role() string

	// Tools returns the set of LLM tools this agent can invoke.
	Tools() []llm.Tool

	// Process executes a task and returns an AgentResult.
	Process(ctx context.Context, task string) (*AgentResult, error)
}

// ── AgentResult ──

// AgentResult holds the output from an agent's processing.
type AgentResult struct {
	AgentName string        `json:"agent_name"`
	Role      string        `json:"role"`
	Content   string        `json:"content"` // LLM-generated text
	ToolCalls int           `json:"tool_calls"`
	Usage     llm.Usage     `json:"usage"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// ── BaseAgent ──

// BaseAgent provides a reusable base implementation for specialized agents.
// Agents embed this struct and configure their role-specific prompts and tools.
type BaseAgent struct {
	name         string
	role         string
	systemPrompt string
	tools        []llm.Tool
	registry     *llm.ToolRegistry
	provider     llm.LLMProvider
	opts         *llm.ChatOptions
	maxToolIter  int
}

// BaseAgentConfig configures a BaseAgent.
type BaseAgentConfig struct {
	Name         string
	Role         string
	SystemPrompt string
	Provider     llm.LLMProvider
	Tools        []llm.Tool
	ChatOptions  *llm.ChatOptions
	MaxToolIter  int
}

// NewBaseAgent creates a new BaseAgent from the given configuration.
func NewBaseAgent(cfg BaseAgentConfig) *BaseAgent {
	if cfg.MaxToolIter <= 0 {
		cfg.MaxToolIter = 5
	}
	return &BaseAgent{
		name:         cfg.Name,
		role:         cfg.Role,
		systemPrompt: cfg.SystemPrompt,
		tools:        cfg.Tools,
		registry:     llm.NewToolRegistry(cfg.Tools...),
		provider:     cfg.Provider,
		opts:         cfg.ChatOptions,
		maxToolIter:  cfg.MaxToolIter,
	}
}

// Name returns the agent's identifier.
func (a *BaseAgent) Name() string { return a.name }

// Role returns the agent's role description.
func (a *BaseAgent) Role() string { return a.role }

// SystemPrompt returns the agent's system prompt.
func (a *BaseAgent) SystemPrompt() string { return a.systemPrompt }

// Tools returns the agent's available tools.
func (a *BaseAgent) Tools() []llm.Tool { return a.tools }

// Process executes a task with a fresh conversation (system prompt + user message).
// An empty final answer is an error: the block would be useless in the report.
func (a *BaseAgent) Process(ctx context.Context, task string) (*AgentResult, error) {
	start := time.Now()

	messages := []llm.Message{
		llm.SystemMessage(a.systemPrompt),
		llm.UserMessage(task),
	}

	result := &AgentResult{AgentName: a.name, Role: a.role}
	loop, err := llm.RunToolLoop(ctx, a.provider, a.registry, messages, a.opts, a.maxToolIter)
	if loop != nil {
		result.ToolCalls = loop.ToolCalls
		result.Usage = loop.Usage
	}
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	result.Content = strings.TrimSpace(loop.Response.Content)
	if result.Content == "" {
		result.Error = llm.ErrEmptyResponse.Error()
		return result, llm.ErrEmptyResponse
	}
	return result, nil
}

// ── Helper: extract a JSON object from LLM content ──

// extractJSONObject returns the outermost {...} span of content, which
// tolerates code fences and prose around the object.
func extractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}
