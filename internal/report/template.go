package report

// ReportTemplate is the HTML layout of an exported report.
const ReportTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #b91c1c;
    --up: #dc2626;
    --down: #16a34a;
    --warn: #ea580c;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'PingFang SC', 'Microsoft YaHei', 'Segoe UI', sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.7;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 28px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3, h4, h5, h6 { font-size: 1rem; margin: 16px 0 8px; }
  p { margin: 6px 0; }
  ul, ol { margin: 6px 0 6px 24px; }
  table { border-collapse: collapse; margin: 10px 0; width: 100%; font-size: 0.9rem; }
  th, td { border: 1px solid var(--border); padding: 6px 10px; text-align: left; }
  th { background: var(--section-bg); }
  blockquote { border-left: 4px solid var(--warn); background: #fff7ed; padding: 8px 12px; margin: 8px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-right { text-align: right; }
  .code-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    margin-right: 8px;
  }

  .quote-bar {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(130px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .quote-item { text-align: center; }
  .quote-item .label { font-size: 0.75rem; color: var(--muted); }
  .quote-item .value { font-size: 1rem; font-weight: 600; }
  .up { color: var(--up); }
  .down { color: var(--down); }

  .gauges { display: flex; gap: 24px; justify-content: center; margin: 12px 0; }
  .chart-container { text-align: center; margin: 12px 0; }
  .chart-container svg { max-width: 100%; height: auto; }
  .section.failed h2 { border-bottom-color: var(--warn); }

  .errors { background: #fef2f2; border: 1px solid #fecaca; border-radius: 8px; padding: 10px 14px; margin-top: 20px; }
  .footer { margin-top: 32px; padding-top: 12px; border-top: 1px solid var(--border); }
  @media print {
    body { max-width: 100%; padding: 0; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<div class="header">
  <div class="header-left">
    <h1><span class="code-badge">{{.Code}}</span>{{.Name}} 期货投资分析报告</h1>
    <p class="muted">{{.Exchange}} · 关键词: {{.Keyword}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">{{.Model}} · 完成 {{.Progress}}</p>
  </div>
</div>

{{with .Latest}}
<div class="quote-bar">
  <div class="quote-item"><div class="label">最新收盘 ({{.Date}})</div><div class="value">{{printf "%.2f" .Close}}</div></div>
  <div class="quote-item"><div class="label">涨跌</div><div class="value {{if ge .Change 0.0}}up{{else}}down{{end}}">{{printf "%+.2f" .Change}} ({{printf "%+.2f" .ChangePct}}%)</div></div>
  <div class="quote-item"><div class="label">最高 / 最低</div><div class="value">{{printf "%.2f" .High}} / {{printf "%.2f" .Low}}</div></div>
  <div class="quote-item"><div class="label">成交量</div><div class="value">{{printf "%.0f" .Volume}}</div></div>
  <div class="quote-item"><div class="label">持仓量</div><div class="value">{{printf "%.0f" .OpenInterest}}</div></div>
</div>
{{end}}

{{if .PriceChart}}
<div class="chart-container">{{.PriceChart}}</div>
{{end}}
{{if or .RSIGauge .ConfidenceGauge}}
<div class="gauges">
  {{if .RSIGauge}}<div>{{.RSIGauge}}</div>{{end}}
  {{if .ConfidenceGauge}}<div>{{.ConfidenceGauge}}</div>{{end}}
</div>
{{end}}

{{range .Sections}}
<div class="section{{if .Failed}} failed{{end}}" id="{{.ID}}">
  <h2>{{.Title}}</h2>
  {{.Body}}
</div>
{{end}}

{{if .Errors}}
<div class="errors">
  <h3>运行错误</h3>
  <ul>
  {{range .Errors}}<li>{{.}}</li>{{end}}
  </ul>
</div>
{{end}}

<div class="footer">
  <p class="muted">{{.Footer}}</p>
  <p class="muted">Run ID: {{.RunID}}</p>
</div>

</body>
</html>`
