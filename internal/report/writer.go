package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seenimoa/futuresagent/internal/agent"
	"github.com/seenimoa/futuresagent/internal/infra"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// WriterConfig selects what Save writes besides the main markdown file.
type WriterConfig struct {
	Dir   string // default: "reports"
	Split bool   // per-block markdown files
	HTML  bool
	PDF   bool // requires wkhtmltopdf or chromium; skipped with a warning otherwise
}

// Writer saves reports under a directory.
type Writer struct {
	cfg WriterConfig
}

// NewWriter creates a Writer. The directory is created on first save.
func NewWriter(cfg WriterConfig) *Writer {
	if cfg.Dir == "" {
		cfg.Dir = "reports"
	}
	return &Writer{cfg: cfg}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.cfg.Dir }

// Saved lists the files written for one report.
type Saved struct {
	Markdown string   `json:"markdown"`
	HTML     string   `json:"html,omitempty"`
	PDF      string   `json:"pdf,omitempty"`
	Blocks   []string `json:"blocks,omitempty"`
}

// Save writes {dir}/{SYMBOL}_{keyword}_{YYYYmmdd_HHMMSS}.md and the optional
// extra files. Only a failure of the main markdown file is an error.
func (w *Writer) Save(ctx context.Context, rep *Report) (*Saved, error) {
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports dir: %w", err)
	}

	stamp := utils.FileStamp(rep.GeneratedAt)
	kw := fileSafe(rep.Keyword)
	base := fmt.Sprintf("%s_%s_%s", strings.ToUpper(rep.Symbol.Code), kw, stamp)
	log := infra.Logger().With("run_id", rep.RunID, "symbol", rep.Symbol.Code)

	saved := &Saved{Markdown: filepath.Join(w.cfg.Dir, base+".md")}
	if err := os.WriteFile(saved.Markdown, []byte(rep.Markdown()), 0o644); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	log.Info("report saved", "path", saved.Markdown)

	if w.cfg.Split {
		for _, b := range rep.Blocks {
			if !b.OK() {
				continue
			}
			path := filepath.Join(w.cfg.Dir, fmt.Sprintf("%s_%s_%s.md", b.Kind, kw, stamp))
			if err := os.WriteFile(path, []byte(blockDocument(b, rep)), 0o644); err != nil {
				log.Warn("block file not written", "block", b.Kind, "error", err)
				continue
			}
			saved.Blocks = append(saved.Blocks, path)
		}
	}

	if !w.cfg.HTML && !w.cfg.PDF {
		return saved, nil
	}

	page, err := rep.HTML()
	if err != nil {
		log.Warn("html export failed", "error", err)
		return saved, nil
	}
	if w.cfg.HTML {
		path := filepath.Join(w.cfg.Dir, base+".html")
		if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
			log.Warn("html export failed", "error", err)
		} else {
			saved.HTML = path
		}
	}
	if w.cfg.PDF {
		path := filepath.Join(w.cfg.Dir, base+".pdf")
		switch err := GeneratePDF(ctx, page, DefaultPDFConfig(path)); {
		case errors.Is(err, ErrNoPDFEngine):
			log.Warn("pdf export skipped", "error", err)
		case err != nil:
			log.Warn("pdf export failed", "error", err)
		default:
			saved.PDF = path
		}
	}
	return saved, nil
}

// blockHeadings are the titles of the per-block files.
var blockHeadings = map[agent.BlockKind]string{
	agent.BlockNews:        "期货新闻分析报告",
	agent.BlockSentiment:   "期货市场情绪分析报告",
	agent.BlockFundamental: "期货基本面与技术分析报告",
	agent.BlockBullish:     "期货看涨分析报告",
	agent.BlockBearish:     "期货看跌分析报告",
	agent.BlockSummary:     "期货综合分析报告",
}

func blockDocument(b *agent.Block, rep *Report) string {
	title, ok := blockHeadings[b.Kind]
	if !ok {
		title = b.Kind.Label()
	}
	var sb strings.Builder
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString(fmt.Sprintf("**分析时间**: %s  \n", utils.FormatDateTimeCST(rep.GeneratedAt)))
	sb.WriteString(fmt.Sprintf("**分析品种**: %s (%s)  \n", rep.Keyword, strings.ToUpper(rep.Symbol.Code)))
	sb.WriteString("\n---\n\n")
	sb.WriteString(strings.TrimSpace(b.Content))
	sb.WriteString("\n")
	return sb.String()
}

// fileSafe strips path separators and whitespace from a keyword.
func fileSafe(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "futures"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\t', '\n':
			return '-'
		}
		return r
	}, s)
}
