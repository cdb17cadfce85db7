package main

import (
	"fmt"
	"time"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/config"
	"github.com/seenimoa/futuresagent/internal/datasource"
	"github.com/seenimoa/futuresagent/internal/history"
	"github.com/seenimoa/futuresagent/internal/infra"
	"github.com/seenimoa/futuresagent/internal/llm"
	"github.com/seenimoa/futuresagent/internal/pipeline"
	"github.com/seenimoa/futuresagent/internal/report"
)

// outputOptions selects what a run writes to disk.
type outputOptions struct {
	Save  bool
	Split bool
	HTML  bool
	PDF   bool
}

func defaultOutput(cfg *config.Config) outputOptions {
	return outputOptions{Save: true, Split: cfg.Report.Split, HTML: cfg.Report.HTML}
}

// newMarket builds the Sina client. Only long-running processes get a
// quote cache; one CLI invocation never shares data with another.
func newMarket(cfg *config.Config, cached bool) *datasource.Sina {
	if !cached || cfg.Market.CacheTTL <= 0 {
		return datasource.NewSina()
	}
	ttl := time.Duration(cfg.Market.CacheTTL) * time.Second
	return datasource.NewSina(datasource.WithSinaCache(datasource.NewCache(ttl)))
}

// newSearcher prefers Zhipu web search and falls back to the RSS feed.
func newSearcher(cfg *config.Config) datasource.Searcher {
	var zhipu datasource.Searcher
	if cfg.Search.ZhipuKey != "" {
		zhipu = datasource.NewZhipuSearch(datasource.ZhipuConfig{
			APIKey:  cfg.Search.ZhipuKey,
			URL:     cfg.Search.ZhipuURL,
			Engine:  cfg.Search.Engine,
			Recency: cfg.Search.Recency,
		})
	} else {
		infra.Logger().Warn("ZHIPU_API_KEY not set, news search uses the RSS feed")
	}
	return datasource.NewFallbackSearcher(zhipu, datasource.NewRSSSearch(cfg.Search.RSSURL))
}

// newOrchestrator wires the LLM provider and the data sources.
func newOrchestrator(cfg *config.Config, market datasource.MarketData) (*agent.Orchestrator, error) {
	if missing := config.MissingRequired(config.CheckAPIKeys(cfg)); len(missing) > 0 {
		return nil, fmt.Errorf("missing required API key(s): %v", missing)
	}
	provider, err := llm.NewDeepSeekProvider(llm.ProviderConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return agent.NewOrchestrator(agent.Config{
		Provider: provider,
		Market:   market,
		Searcher: newSearcher(cfg),
		ChatOptions: &llm.ChatOptions{
			Temperature: llm.Temperature(cfg.LLM.Temperature),
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		Model:       cfg.LLM.Model,
		MaxToolIter: cfg.LLM.MaxIterations,
		SearchLimit: cfg.Search.MaxResults,
		Lookback:    cfg.Market.Lookback,
	})
}

// newRunner assembles the full pipeline. The returned Recorder must be
// closed by the caller.
func newRunner(cfg *config.Config, out outputOptions, cached bool) (*pipeline.Runner, history.Recorder, error) {
	orch, err := newOrchestrator(cfg, newMarket(cfg, cached))
	if err != nil {
		return nil, nil, err
	}
	rec := history.Open(cfg.History.Path)
	runner := &pipeline.Runner{Analyzer: orch, History: rec}
	if out.Save {
		runner.Writer = report.NewWriter(report.WriterConfig{
			Dir:   cfg.Report.Dir,
			Split: out.Split,
			HTML:  out.HTML,
			PDF:   out.PDF,
		})
	}
	return runner, rec, nil
}

// loadCatalog merges the optional user catalog into the built-in one.
func loadCatalog(cfg *config.Config) error {
	if cfg.Market.CatalogFile == "" {
		return nil
	}
	n, err := datasource.LoadCatalogFile(cfg.Market.CatalogFile)
	if err != nil {
		return fmt.Errorf("load symbol catalog: %w", err)
	}
	infra.Logger().Debug("symbol catalog loaded", "file", cfg.Market.CatalogFile, "symbols", n)
	return nil
}
