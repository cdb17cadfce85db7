package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/seenimoa/futuresagent/internal/analysis/technical"
	"github.com/seenimoa/futuresagent/pkg/utils"
)

// markdown converts section bodies. Raw HTML in LLM output is dropped by
// goldmark's default renderer.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var reportTmpl = template.Must(template.New("report").Parse(ReportTemplate))

type htmlSection struct {
	ID     string
	Title  string
	Failed bool
	Body   template.HTML
}

type htmlData struct {
	Title           string
	Code            string
	Name            string
	Exchange        string
	Keyword         string
	GeneratedAt     string
	Model           string
	Progress        string
	RunID           string
	Latest          *technical.Latest
	PriceChart      template.HTML
	RSIGauge        template.HTML
	ConfidenceGauge template.HTML
	Sections        []htmlSection
	Errors          []string
	Footer          string
}

// HTML renders the report as a standalone HTML page with embedded SVG charts.
func (r *Report) HTML() (string, error) {
	data := htmlData{
		Title:       r.Title(),
		Code:        strings.ToUpper(r.Symbol.Code),
		Name:        r.Symbol.Name,
		Exchange:    string(r.Symbol.Exchange),
		Keyword:     r.Keyword,
		GeneratedAt: utils.FormatDateTimeCST(r.GeneratedAt),
		Model:       r.Model,
		Progress:    fmt.Sprintf("%d/%d", r.Succeeded, r.Total),
		RunID:       r.RunID,
		Errors:      r.Errors,
		Footer:      strings.Trim(Footer, "*"),
	}

	if s := r.Snapshot; s != nil {
		latest := s.Latest
		data.Latest = &latest
		if len(s.Bars) > 0 {
			cfg := DefaultChartConfig()
			cfg.Title = fmt.Sprintf("%s (%s) 日K线", s.Name, data.Code)
			data.PriceChart = template.HTML(CandlestickChart(s.Bars, MovingAverageOverlays(s.Closes, 5, 10, 20), cfg))
		}
		if !s.RSI.Insufficient {
			data.RSIGauge = template.HTML(GaugeChart(s.RSI.Value, fmt.Sprintf("RSI(%d)", s.RSIPeriod), 200, RSIZones))
		}
	}
	if r.Synthesis != nil && r.Synthesis.Recommendation != nil {
		rec := r.Synthesis.Recommendation
		data.ConfidenceGauge = template.HTML(GaugeChart(rec.Confidence*100, "信心度 · "+rec.Action.Label(), 200, ConfidenceZones))
	}

	for _, s := range r.Sections {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(s.Body), &buf); err != nil {
			return "", fmt.Errorf("rendering section %s: %w", s.Kind, err)
		}
		data.Sections = append(data.Sections, htmlSection{
			ID:     string(s.Kind),
			Title:  s.Title,
			Failed: s.Failed,
			Body:   template.HTML(buf.String()),
		})
	}

	var out bytes.Buffer
	if err := reportTmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return out.String(), nil
}
