// futuresagent: multi-agent investment reports for Chinese commodity futures.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seenimoa/futuresagent/api"
	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/internal/config"
	"github.com/seenimoa/futuresagent/internal/datasource"
	"github.com/seenimoa/futuresagent/internal/history"
	"github.com/seenimoa/futuresagent/internal/infra"
	"github.com/seenimoa/futuresagent/internal/pipeline"
	"github.com/seenimoa/futuresagent/internal/report"
	"github.com/seenimoa/futuresagent/internal/scheduler"
	"github.com/seenimoa/futuresagent/pkg/models"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "futuresagent",
	Short: "期货投资分析报告生成器",
	Long: `futuresagent fetches daily bars from Sina Finance, computes technical
indicators, searches recent news and lets DeepSeek agents write a
structured Chinese investment report for one commodity future.

Examples:
  futuresagent --symbol cu
  futuresagent -s rb -k 螺纹钢价格
  futuresagent --list-symbols`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if err := infra.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
			return err
		}
		return loadCatalog(cfg)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		list, _ := cmd.Flags().GetBool("list-symbols")
		if list {
			printSymbols(cmd.OutOrStdout(), datasource.Symbols())
			return nil
		}
		symbol, _ := cmd.Flags().GetString("symbol")
		if symbol == "" {
			return cmd.Help()
		}
		keyword, _ := cmd.Flags().GetString("keyword")
		return runAnalysis(cmd, symbol, keyword, defaultOutput(cfg))
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./futuresagent.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.Flags().StringP("symbol", "s", "", "futures variety code, e.g. cu, rb, au")
	rootCmd.Flags().StringP("keyword", "k", "", "news search keyword (default: the Chinese name)")
	rootCmd.Flags().Bool("list-symbols", false, "list supported varieties and exit")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("futuresagent %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol]",
	Short: "Generate the investment report for one variety",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword, _ := cmd.Flags().GetString("keyword")
		noSave, _ := cmd.Flags().GetBool("no-save")
		out := defaultOutput(cfg)
		out.Save = !noSave
		if cmd.Flags().Changed("html") {
			out.HTML, _ = cmd.Flags().GetBool("html")
		}
		if cmd.Flags().Changed("split") {
			out.Split, _ = cmd.Flags().GetBool("split")
		}
		out.PDF, _ = cmd.Flags().GetBool("pdf")
		return runAnalysis(cmd, args[0], keyword, out)
	},
}

func init() {
	analyzeCmd.Flags().StringP("keyword", "k", "", "news search keyword (default: the Chinese name)")
	analyzeCmd.Flags().Bool("no-save", false, "print the report without writing files")
	analyzeCmd.Flags().Bool("html", false, "also write an HTML report")
	analyzeCmd.Flags().Bool("pdf", false, "also write a PDF report (needs wkhtmltopdf or chromium)")
	analyzeCmd.Flags().Bool("split", false, "also write one markdown file per analysis step")
}

// runAnalysis validates the symbol, runs the pipeline and prints the report.
func runAnalysis(cmd *cobra.Command, symbol, keyword string, out outputOptions) error {
	sym, err := datasource.Lookup(symbol)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, rec, err := newRunner(cfg, out, false)
	if err != nil {
		return err
	}
	defer rec.Close()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "🔍 正在分析 %s (%s)，市场状态: %s\n",
		sym.Name, strings.ToUpper(sym.Code), utils.MarketStatus(utils.NowCST(), sym.Financial()))

	outcome, err := runner.Analyze(ctx, agent.Request{
		Symbol:  sym.Code,
		Keyword: keyword,
		OnEvent: progressPrinter(stderr),
	})
	if err != nil {
		return err
	}
	printOutcome(cmd.OutOrStdout(), outcome)
	return outcome.SaveErr
}

// progressPrinter reports workflow events on w.
func progressPrinter(w io.Writer) func(agent.Event) {
	return func(ev agent.Event) {
		switch ev.Type {
		case agent.EventPhaseStarted:
			fmt.Fprintf(w, "  ▶ 阶段 %d: %s\n", ev.Phase, agent.PhaseLabel(ev.Phase))
		case agent.EventBlockDone:
			fmt.Fprintf(w, "  ✅ %s\n", ev.Block.Label())
		case agent.EventBlockFailed:
			fmt.Fprintf(w, "  ❌ %s: %s\n", ev.Block.Label(), ev.Message)
		}
	}
}

// printOutcome writes the report followed by the run summary.
func printOutcome(w io.Writer, o *pipeline.Outcome) {
	fmt.Fprintln(w, o.Report.Markdown())
	fmt.Fprintln(w, "═══════════════════════════════════════")
	if p := o.Path(); p != "" {
		fmt.Fprintf(w, "📄 报告已保存: %s\n", p)
		if o.Saved.HTML != "" {
			fmt.Fprintf(w, "🌐 HTML: %s\n", o.Saved.HTML)
		}
		if o.Saved.PDF != "" {
			fmt.Fprintf(w, "📑 PDF: %s\n", o.Saved.PDF)
		}
	}
	fmt.Fprintf(w, "📊 完成步骤: %d/%d (耗时 %s)\n",
		o.Result.Succeeded(), o.Result.Total(), report.FormatDuration(o.Result.Duration()))
	if len(o.Result.Errors) > 0 {
		fmt.Fprintln(w, "⚠️  以下步骤出错:")
		for _, e := range o.Result.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}

// --- Symbols Command ---

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List supported futures varieties",
	RunE: func(cmd *cobra.Command, args []string) error {
		ex, _ := cmd.Flags().GetString("exchange")
		syms := datasource.Symbols()
		if ex != "" {
			syms = datasource.SymbolsByExchange(models.Exchange(strings.ToUpper(ex)))
		}
		if len(syms) == 0 {
			return fmt.Errorf("no varieties for exchange %q", ex)
		}
		printSymbols(cmd.OutOrStdout(), syms)
		return nil
	},
}

func init() {
	symbolsCmd.Flags().String("exchange", "", "filter by exchange (SHFE, DCE, CZCE, CFFEX, INE, GFEX)")
}

func printSymbols(w io.Writer, syms []models.Symbol) {
	fmt.Fprintln(w, "支持的期货品种:")
	for _, s := range syms {
		fmt.Fprintf(w, "  %-6s - %s (%s)\n", s.Code, s.Name, s.Exchange)
	}
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol]",
	Short: "Show the realtime quote and indicator snapshot (no LLM)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		view, err := datasource.FetchMarketView(ctx, newMarket(cfg, false), args[0], cfg.Market.Lookback)
		if err != nil {
			if errors.Is(err, datasource.ErrUnsupportedSymbol) {
				return err
			}
			return fmt.Errorf("行情数据获取失败: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "市场状态: %s\n", view.Status)
		if view.Quote != nil {
			printQuote(w, view.Quote)
		}
		for _, e := range view.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s\n", e)
		}

		snap, err := technical.Compute(view.Symbol, view.Bars, technical.DefaultOptions())
		if err != nil {
			return err
		}
		fmt.Fprintln(w, report.IndicatorTable(snap))
		return nil
	},
}

func printQuote(w io.Writer, q *models.Quote) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%s)\t%s\n", q.Name, strings.ToUpper(q.Code), utils.FormatDateTimeCST(q.Time))
	fmt.Fprintf(tw, "最新价\t%.2f\t%s\n", q.Last, utils.FormatSignedPct(q.ChangePct))
	fmt.Fprintf(tw, "开/高/低\t%.2f / %.2f / %.2f\n", q.Open, q.High, q.Low)
	fmt.Fprintf(tw, "昨结算\t%.2f\n", q.PreSettle)
	fmt.Fprintf(tw, "成交量\t%s\n", utils.FormatVolume(q.Volume))
	fmt.Fprintf(tw, "持仓量\t%s\n", utils.FormatVolume(q.OpenInterest))
	tw.Flush()
	fmt.Fprintln(w)
}

// --- History Command ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived report runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		symbol, _ := cmd.Flags().GetString("symbol")

		rec := history.Open(cfg.History.Path)
		defer rec.Close()
		runs, err := rec.ListRuns(cmd.Context(), history.ListOptions{
			Symbol: datasource.NormalizeCode(symbol),
			Limit:  limit,
		})
		if err != nil {
			return err
		}
		printRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show")
	historyCmd.Flags().String("symbol", "", "only runs of this variety")
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "暂无历史记录")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "时间\t品种\t关键词\t完成\t情绪\t建议\t报告")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			utils.FormatDateTimeCST(r.FinishedAt), strings.ToUpper(r.Symbol), r.Keyword,
			r.Succeeded, r.Total, dash(r.Sentiment), dash(r.Action), dash(r.ReportPath))
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// --- Watch Command ---

var watchCmd = &cobra.Command{
	Use:   "watch [symbol...]",
	Short: "Generate reports for a watch list on a cron schedule",
	Long: `Generate and save reports on a schedule. The cron expression has a
leading seconds field and is evaluated in Asia/Shanghai time.

Examples:
  futuresagent watch cu rb
  futuresagent watch --cron "0 0 21 * * 1-5" au ag --now`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, _ := cmd.Flags().GetString("cron")
		if spec == "" {
			spec = cfg.Watch.Cron
		}
		if err := scheduler.ValidateSpec(spec); err != nil {
			return err
		}
		symbols := args
		if len(symbols) == 0 {
			symbols = cfg.Watch.Symbols
		}
		for _, s := range symbols {
			if _, err := datasource.Lookup(s); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner, rec, err := newRunner(cfg, defaultOutput(cfg), true)
		if err != nil {
			return err
		}
		defer rec.Close()

		sched := scheduler.New(ctx, func(ctx context.Context, symbol string) error {
			out, err := runner.Analyze(ctx, agent.Request{Symbol: symbol})
			if err != nil {
				return err
			}
			if out.SaveErr != nil {
				return out.SaveErr
			}
			infra.Logger().Info("watch report saved", "symbol", symbol, "path", out.Path(),
				"succeeded", out.Result.Succeeded(), "total", out.Result.Total())
			return nil
		})
		if err := sched.Watch(spec, symbols); err != nil {
			return err
		}
		sched.Start()
		fmt.Fprintf(cmd.ErrOrStderr(), "⏰ 定时任务已启动: %s %v，下次运行 %s\n",
			spec, symbols, utils.FormatDateTimeCST(sched.Next()))

		if now, _ := cmd.Flags().GetBool("now"); now {
			sched.RunNow()
		}
		<-ctx.Done()
		sched.Stop()
		return nil
	},
}

func init() {
	watchCmd.Flags().String("cron", "", "cron expression with seconds (default: watch.cron)")
	watchCmd.Flags().Bool("now", false, "also run the watch list once at startup")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, rec, err := newRunner(cfg, defaultOutput(cfg), true)
		if err != nil {
			return err
		}
		defer rec.Close()

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Fprintf(cmd.ErrOrStderr(), "🌐 Starting futuresagent API server on %s\n", addr)
		err = api.NewServer(cfg, runner, version).ListenAndServe(cmd.Context(), addr)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  futuresagent — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus(utils.NowCST(), false))
		fmt.Printf("  Time (CST):    %s\n", utils.FormatDateTimeCST(utils.NowCST()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM:           %s (%s)\n", cfg.LLM.Model, cfg.LLM.BaseURL)
		fmt.Printf("    Search:        %s\n", searchMode(cfg))
		fmt.Printf("    Lookback:      %d sessions\n", cfg.Market.Lookback)
		fmt.Printf("    Reports:       %s\n", cfg.Report.Dir)
		fmt.Printf("    History:       %s\n", dash(cfg.History.Path))
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    PDF Engine:    %s\n", report.DetectPDFEngine())
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			} else if !k.Required {
				status = "➖ not set (optional)"
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func searchMode(cfg *config.Config) string {
	if cfg.Search.ZhipuKey != "" {
		return "zhipu " + cfg.Search.Engine + " (RSS fallback)"
	}
	return "RSS feed"
}
