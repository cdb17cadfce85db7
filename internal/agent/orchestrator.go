package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/futuresagent/internal/agent/prompts"
	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/internal/datasource"
	"github.com/seenimoa/futuresagent/internal/infra"
	"github.com/seenimoa/futuresagent/internal/llm"
	"github.com/seenimoa/futuresagent/pkg/models"
)

// BlockKind identifies one LLM-written block of a report.
type BlockKind string

const (
	BlockNews        BlockKind = "news"
	BlockSentiment   BlockKind = "sentiment"
	BlockFundamental BlockKind = "fundamental"
	BlockBullish     BlockKind = "bullish"
	BlockBearish     BlockKind = "bearish"
	BlockSummary     BlockKind = "summary"
)

// BlockKinds returns every block in workflow order.
func BlockKinds() []BlockKind {
	return []BlockKind{BlockNews, BlockSentiment, BlockFundamental, BlockBullish, BlockBearish, BlockSummary}
}

// Label returns the Chinese name used in logs and error messages.
func (k BlockKind) Label() string {
	switch k {
	case BlockNews:
		return "新闻分析"
	case BlockSentiment:
		return "情绪分析"
	case BlockFundamental:
		return "基本面分析"
	case BlockBullish:
		return "看涨分析"
	case BlockBearish:
		return "看跌分析"
	case BlockSummary:
		return "综合分析"
	}
	return string(k)
}

// Block is the outcome of one agent step.
type Block struct {
	Kind      BlockKind     `json:"kind"`
	Agent     string        `json:"agent"`
	Content   string        `json:"content,omitempty"`
	Error     string        `json:"error,omitempty"`
	ToolCalls int           `json:"tool_calls"`
	Usage     llm.Usage     `json:"usage"`
	Duration  time.Duration `json:"duration"`
}

// OK reports whether the step produced text.
func (b *Block) OK() bool { return b != nil && b.Error == "" && strings.TrimSpace(b.Content) != "" }

// Text returns the content of a successful block, or "".
func (b *Block) Text() string {
	if !b.OK() {
		return ""
	}
	return b.Content
}

// ── Progress events ──

// EventType classifies progress events.
type EventType string

const (
	EventRunStarted   EventType = "run_started"
	EventPhaseStarted EventType = "phase_started"
	EventBlockDone    EventType = "block_done"
	EventBlockFailed  EventType = "block_failed"
	EventRunFinished  EventType = "run_finished"
)

// Event reports workflow progress to CLI spinners and websocket clients.
type Event struct {
	RunID   string    `json:"run_id"`
	Type    EventType `json:"type"`
	Symbol  string    `json:"symbol"`
	Phase   int       `json:"phase,omitempty"`
	Block   BlockKind `json:"block,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// ── Request / Result ──

// Request asks for one report.
type Request struct {
	Symbol  string      `json:"symbol"`
	Keyword string      `json:"keyword,omitempty"` // defaults to the Chinese name
	OnEvent func(Event) `json:"-"`
}

// Result carries everything a report is built from.
type Result struct {
	RunID      string              `json:"run_id"`
	Symbol     models.Symbol       `json:"symbol"`
	Keyword    string              `json:"keyword"`
	Model      string              `json:"model"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Blocks     []*Block            `json:"blocks"` // BlockKinds order
	Snapshot   *technical.Snapshot `json:"snapshot,omitempty"`
	Sentiment  *SentimentReading   `json:"sentiment,omitempty"`
	Synthesis  *Synthesis          `json:"synthesis,omitempty"`
	Errors     []string            `json:"errors,omitempty"`
	Usage      llm.Usage           `json:"usage"`
}

// Block returns the block of the given kind.
func (r *Result) Block(kind BlockKind) *Block {
	for _, b := range r.Blocks {
		if b.Kind == kind {
			return b
		}
	}
	return nil
}

// Succeeded returns how many of the six steps produced text.
func (r *Result) Succeeded() int {
	n := 0
	for _, b := range r.Blocks {
		if b.OK() {
			n++
		}
	}
	return n
}

// Total is the number of steps in a run.
func (r *Result) Total() int { return len(r.Blocks) }

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// ── Orchestrator ──

// Config holds the dependencies of an Orchestrator.
type Config struct {
	Provider    llm.LLMProvider
	Market      datasource.MarketData
	Searcher    datasource.Searcher
	ChatOptions *llm.ChatOptions
	Model       string // recorded in results
	MaxToolIter int
	SearchLimit int
	Lookback    int
	Indicators  technical.Options
}

// Orchestrator runs the three-phase report workflow.
type Orchestrator struct {
	cfg Config
}

// NewOrchestrator validates cfg and fills defaults.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, errors.New("agent: LLM provider is required")
	}
	if cfg.Market == nil {
		return nil, errors.New("agent: market data source is required")
	}
	if cfg.Searcher == nil {
		return nil, errors.New("agent: searcher is required")
	}
	if cfg.MaxToolIter <= 0 {
		cfg.MaxToolIter = 5
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 10
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 30
	}
	if cfg.Indicators.RSIPeriod == 0 {
		cfg.Indicators = technical.DefaultOptions()
	}
	if cfg.Model == "" {
		cfg.Model = cfg.Provider.Name()
	}
	return &Orchestrator{cfg: cfg}, nil
}

// Snapshot fetches history and computes indicators without any LLM call.
func (o *Orchestrator) Snapshot(ctx context.Context, code string) (*technical.Snapshot, error) {
	sym, err := datasource.Lookup(code)
	if err != nil {
		return nil, err
	}
	return NewSnapshotLoader(o.cfg.Market, o.cfg.Lookback, o.cfg.Indicators)(ctx, sym)
}

// Run produces the blocks of one report. The symbol is validated before
// any network call; an unknown code returns ErrUnsupportedSymbol. Every
// later failure is recorded in the result and the run continues.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	sym, err := datasource.Lookup(req.Symbol)
	if err != nil {
		return nil, err
	}
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		keyword = sym.Name
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Symbol:    sym,
		Keyword:   keyword,
		Model:     o.cfg.Model,
		StartedAt: time.Now(),
	}
	for _, k := range BlockKinds() {
		res.Blocks = append(res.Blocks, &Block{Kind: k})
	}

	r := &run{res: res, onEvent: req.OnEvent, log: infra.Logger().With("run_id", res.RunID, "symbol", sym.Code)}
	r.emit(Event{Type: EventRunStarted, Message: keyword})
	r.log.Info("analysis started", "keyword", keyword)

	opts := o.cfg.ChatOptions
	load := memoize(sym, NewSnapshotLoader(o.cfg.Market, o.cfg.Lookback, o.cfg.Indicators))

	// Phase 1: news, sentiment and technical data in parallel.
	r.phase(1)
	news := NewNewsAgent(o.cfg.Provider, o.cfg.Searcher, o.cfg.SearchLimit, opts, o.cfg.MaxToolIter)
	sentiment := NewSentimentAgent(o.cfg.Provider, o.cfg.Searcher, o.cfg.SearchLimit, opts, o.cfg.MaxToolIter)
	fundamental := NewFundamentalAgent(o.cfg.Provider, load, opts, o.cfg.MaxToolIter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := load(gctx, sym)
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("行情数据获取失败: %v", err))
			r.log.Warn("snapshot failed", "error", err)
			return nil
		}
		res.Snapshot = snap
		return nil
	})
	g.Go(func() error {
		r.record(BlockNews, news.Name())(news.Analyze(gctx, keyword))
		return nil
	})
	g.Go(func() error {
		r.record(BlockSentiment, sentiment.Name())(sentiment.Analyze(gctx, keyword))
		return nil
	})
	g.Go(func() error {
		// No bars, no technical section: the agent is not asked to write one.
		if _, err := load(gctx, sym); err != nil {
			r.record(BlockFundamental, fundamental.Name())(nil, fmt.Errorf("行情数据不可用: %w", err))
			return nil
		}
		r.record(BlockFundamental, fundamental.Name())(fundamental.Analyze(gctx, keyword, sym))
		return nil
	})
	_ = g.Wait()

	if reading, ok := ExtractSentiment(res.Block(BlockSentiment).Text()); ok {
		res.Sentiment = &reading
	}
	phaseOne := prompts.PhaseOne{
		News:        res.Block(BlockNews).Text(),
		Sentiment:   res.Block(BlockSentiment).Text(),
		Fundamental: res.Block(BlockFundamental).Text(),
	}

	// Phase 2: bull/bear debate in parallel.
	r.phase(2)
	bull := NewBullAgent(o.cfg.Provider, opts)
	bear := NewBearAgent(o.cfg.Provider, opts)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		r.record(BlockBullish, bull.Name())(bull.Argue(gctx, keyword, sym, phaseOne))
		return nil
	})
	g.Go(func() error {
		r.record(BlockBearish, bear.Name())(bear.Argue(gctx, keyword, sym, phaseOne))
		return nil
	})
	_ = g.Wait()

	// Phase 3: synthesis.
	r.phase(3)
	summary := NewSummaryAgent(o.cfg.Provider, opts)
	sres, synthesis, serr := summary.Summarize(ctx, keyword, sym, phaseOne,
		res.Block(BlockBullish).Text(), res.Block(BlockBearish).Text())
	r.record(BlockSummary, summary.Name())(sres, serr)
	res.Synthesis = synthesis

	res.FinishedAt = time.Now()
	for _, b := range res.Blocks {
		res.Usage.Add(b.Usage)
	}
	r.log.Info("analysis finished",
		"succeeded", fmt.Sprintf("%d/%d", res.Succeeded(), res.Total()),
		"errors", len(res.Errors),
		"tokens", res.Usage.TotalTokens,
		"duration", res.Duration().Round(time.Millisecond))
	r.emit(Event{Type: EventRunFinished, Message: fmt.Sprintf("%d/%d", res.Succeeded(), res.Total())})

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// run is the mutable state of one Run call.
type run struct {
	mu      sync.Mutex
	res     *Result
	onEvent func(Event)
	log     *slog.Logger
}

func (r *run) emit(ev Event) {
	if r.onEvent == nil {
		return
	}
	ev.RunID = r.res.RunID
	ev.Symbol = r.res.Symbol.Code
	ev.Time = time.Now()
	r.onEvent(ev)
}

func (r *run) phase(n int) {
	r.log.Info("phase started", "phase", n)
	r.emit(Event{Type: EventPhaseStarted, Phase: n, Message: PhaseLabel(n)})
}

// PhaseLabel names a workflow phase.
func PhaseLabel(n int) string {
	switch n {
	case 1:
		return "新闻、情绪与技术分析"
	case 2:
		return "多空辩论"
	case 3:
		return "综合分析"
	}
	return fmt.Sprintf("阶段%d", n)
}

// record stores an agent outcome in the block of the given kind.
func (r *run) record(kind BlockKind, agentName string) func(*AgentResult, error) {
	return func(ar *AgentResult, err error) {
		r.mu.Lock()
		b := r.res.Block(kind)
		b.Agent = agentName
		if ar != nil {
			b.Content = ar.Content
			b.ToolCalls = ar.ToolCalls
			b.Usage = ar.Usage
			b.Duration = ar.Duration
		}
		if err != nil {
			b.Content = ""
			b.Error = err.Error()
			r.res.Errors = append(r.res.Errors, fmt.Sprintf("%s出错: %v", kind.Label(), err))
		}
		ok := b.OK()
		r.mu.Unlock()

		if ok {
			r.log.Info("block done", "block", kind, "chars", len([]rune(b.Content)), "tool_calls", b.ToolCalls)
			r.emit(Event{Type: EventBlockDone, Block: kind})
			return
		}
		r.log.Warn("block failed", "block", kind, "error", b.Error)
		r.emit(Event{Type: EventBlockFailed, Block: kind, Message: b.Error})
	}
}

// memoize shares one snapshot fetch for sym between the fundamental
// agent's tool calls and the report table within a single run.
func memoize(sym models.Symbol, load SnapshotLoader) SnapshotLoader {
	var (
		once sync.Once
		snap *technical.Snapshot
		err  error
	)
	return func(ctx context.Context, s models.Symbol) (*technical.Snapshot, error) {
		if s.Code != sym.Code {
			return load(ctx, s)
		}
		once.Do(func() { snap, err = load(ctx, s) })
		return snap, err
	}
}
