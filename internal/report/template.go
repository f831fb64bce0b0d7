package report

// ReportTemplate is the HTML template for the filing analysis report.
// It is embedded as a Go constant — no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
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
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --orange: #ea580c;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Header */
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-left h1 { color: var(--accent); }
  .header-right { text-align: right; }
  .ticker-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    font-size: 1.1rem;
    margin-right: 8px;
  }
  .form-badge {
    display: inline-block;
    background: var(--section-bg);
    border: 1px solid var(--border);
    color: var(--muted);
    padding: 1px 8px;
    border-radius: 3px;
    font-size: 0.8rem;
    font-weight: 600;
  }

  /* Metric grid */
  .metric-grid {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(200px, 1fr));
    gap: 8px;
    margin: 10px 0 16px;
  }
  .metric-card {
    background: var(--section-bg);
    padding: 8px 12px;
    border-radius: 6px;
    display: flex;
    justify-content: space-between;
  }
  .metric-card .label { color: var(--muted); font-size: 0.85rem; }
  .metric-card .value { font-weight: 600; }

  /* Alerts */
  .alert-list { list-style: none; margin: 8px 0 16px; }
  .alert-list li {
    background: #fef2f2;
    border-left: 4px solid var(--red);
    padding: 6px 12px;
    border-radius: 0 4px 4px 0;
    margin: 4px 0;
    font-size: 0.9rem;
  }
  .no-alerts {
    background: #ecfdf5;
    border-left: 4px solid var(--green);
    padding: 6px 12px;
    border-radius: 0 4px 4px 0;
    margin: 8px 0 16px;
    font-size: 0.9rem;
    color: var(--green);
  }

  /* Trend summary */
  .section-summary {
    background: var(--section-bg);
    padding: 12px;
    border-radius: 6px;
    margin: 8px 0;
    font-size: 0.95rem;
    line-height: 1.7;
  }

  /* Chart container */
  .chart-container {
    margin: 12px 0;
    overflow-x: auto;
  }
  .chart-container svg { max-width: 100%; height: auto; }

  /* Comparison table */
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.85rem; }
  th { background: var(--section-bg); text-align: right; padding: 8px; font-weight: 600; }
  th:first-child, td:first-child { text-align: left; }
  td { padding: 8px; border-bottom: 1px solid var(--border); text-align: right; }
  tr.main-row td { font-weight: 600; background: #eff6ff; }
  .table-scroll { overflow-x: auto; }

  /* Section */
  .section { margin: 20px 0; }

  /* Errors */
  .error-list { list-style: none; margin: 8px 0 16px; }
  .error-list li {
    background: #fff7ed;
    border-left: 4px solid var(--orange);
    padding: 6px 12px;
    border-radius: 0 4px 4px 0;
    margin: 4px 0;
    font-size: 0.9rem;
  }

  /* Footer */
  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div class="header-left">
    <h1><span class="ticker-badge">{{.MainTicker}}</span> {{.CompanyName}}</h1>
    <p class="muted">{{.Title}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">FilingLens</p>
  </div>
</div>

<!-- ═══════ PER-TICKER SECTIONS ═══════ -->
{{range .Sections}}
<div class="section">
  <h2><span class="ticker-badge">{{.Ticker}}</span> {{.CompanyName}}
    {{if .FormType}}<span class="form-badge">{{.FormType}} · filed {{.FilingDate}} · {{.Period}}</span>{{end}}
  </h2>

  {{if .Metrics}}
  <div class="metric-grid">
    {{range .Metrics}}
    <div class="metric-card">
      <span class="label">{{.Label}}</span>
      <span class="value">{{.Value}}</span>
    </div>
    {{end}}
  </div>
  {{end}}

  {{if .Alerts}}
  <h3>Alerts</h3>
  <ul class="alert-list">
    {{range .Alerts}}<li>{{.}}</li>{{end}}
  </ul>
  {{else}}
  <div class="no-alerts">No alerts.</div>
  {{end}}

  {{if .TrendSummary}}
  <div class="section-summary">{{.TrendSummary}} {{.ForecastLine}}</div>
  {{end}}

  {{if .AnnualChart}}
  <div class="chart-container">{{.AnnualChart}}</div>
  {{end}}
  {{if .QuarterlyChart}}
  <div class="chart-container">{{.QuarterlyChart}}</div>
  {{end}}
</div>
{{end}}

<!-- ═══════ PEER COMPARISON ═══════ -->
{{if .ShowComparison}}
<div class="section">
  <h2>Peer Comparison</h2>
  <div class="table-scroll">
  <table>
    <thead>
      <tr><th>Ticker</th>{{range .ComparisonCols}}<th>{{.}}</th>{{end}}</tr>
    </thead>
    <tbody>
    {{range .ComparisonRows}}
    <tr{{if .Main}} class="main-row"{{end}}>
      <td>{{.Ticker}}</td>
      {{range .Cells}}<td>{{.}}</td>{{end}}
    </tr>
    {{end}}
    </tbody>
  </table>
  </div>
</div>
{{end}}

<!-- ═══════ ERRORS ═══════ -->
{{if .Errors}}
<div class="section">
  <h2>Skipped Tickers</h2>
  <ul class="error-list">
    {{range .Errors}}<li><strong>{{.Ticker}}</strong> — {{.Message}}</li>{{end}}
  </ul>
</div>
{{end}}

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  <p>Metrics are derived from SEC EDGAR filings as rendered in each filing's financial reports.
  Unresolved line items are shown blank, never as zero.</p>
  <p>Generated by FilingLens on {{.GeneratedAt}}</p>
</div>

</body>
</html>`
