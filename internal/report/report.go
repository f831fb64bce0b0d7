package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/seenimoa/filinglens/internal/analysis/fundamental"
	"github.com/seenimoa/filinglens/pkg/models"
	"github.com/seenimoa/filinglens/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator — Orchestrates chart + template rendering
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown report format %q (text, html, csv)", s)
	}
}

// Config controls report generation behaviour.
type Config struct {
	Format   Format      // output format (default: text)
	Title    string      // custom report title (optional)
	ChartCfg ChartConfig // chart rendering config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Format:   FormatText,
		ChartCfg: DefaultChartConfig(),
	}
}

// snapshotColumns is the metric column order for snapshot tables. Columns
// a filer did not resolve render as blanks, never zeros.
var snapshotColumns = []string{
	fundamental.MetricRevenue,
	fundamental.MetricNetIncome,
	fundamental.MetricGrossMargin,
	fundamental.MetricNetMargin,
	fundamental.MetricOperatingExpenses,
	fundamental.MetricDebtToEquity,
	fundamental.MetricEquityRatio,
	fundamental.MetricROE,
	fundamental.MetricROA,
	fundamental.MetricFreeCashFlow,
	fundamental.MetricEBITDA,
	fundamental.MetricIntangibleRatio,
	fundamental.MetricGoodwillRatio,
	fundamental.MetricTangibleEquity,
	fundamental.MetricNetDebt,
	fundamental.MetricNetDebtEBITDA,
	fundamental.MetricLeaseRatio,
}

// Generate renders a batch report in the configured format.
func Generate(batch *models.BatchReport, cfg Config) (string, error) {
	if batch == nil {
		return "", fmt.Errorf("batch report is nil")
	}
	switch cfg.Format {
	case FormatHTML:
		return GenerateHTML(batch, cfg)
	case FormatCSV:
		var buf bytes.Buffer
		if err := WriteSnapshotCSV(&buf, batch); err != nil {
			return "", err
		}
		return buf.String(), nil
	case FormatText, "":
		return GenerateText(batch)
	default:
		return "", fmt.Errorf("unknown report format %q", cfg.Format)
	}
}

// GenerateText renders the terminal summary: per-ticker snapshot blocks,
// alert sections, and the multi-period growth and forecast picture.
func GenerateText(batch *models.BatchReport) (string, error) {
	if batch == nil {
		return "", fmt.Errorf("batch report is nil")
	}

	var sb strings.Builder
	line := strings.Repeat("═", 64)
	thinLine := strings.Repeat("─", 64)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  FILING ANALYSIS — %s", batch.Main))
	if peers := len(batch.Order) - 1; peers > 0 {
		sb.WriteString(fmt.Sprintf(" (+%d peers)", peers))
	}
	sb.WriteString("\n")
	if rep, ok := batch.Reports[batch.Main]; ok {
		sb.WriteString(fmt.Sprintf("  Generated: %s\n", rep.GeneratedAt.Format("02 Jan 2006 15:04 MST")))
	}
	sb.WriteString(line + "\n")

	// Snapshot blocks, main ticker first.
	for _, rep := range batch.InOrder() {
		snap := latestSnapshot(rep)
		sb.WriteString(fmt.Sprintf("\n  ■ %s — %s\n", rep.Ticker, rep.CompanyName))
		if snap == nil {
			sb.WriteString("    No snapshot data.\n")
			sb.WriteString(thinLine + "\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s filed %s · period %s\n",
			snap.Meta.FormType, snap.Meta.FilingDate, snap.Period))
		for _, col := range snapshotColumns {
			if v, ok := snap.Metric(col); ok {
				sb.WriteString(fmt.Sprintf("    %-26s %s\n", col, utils.FormatAbbrev(v)))
			}
		}
		sb.WriteString(thinLine + "\n")
	}

	// Snapshot alerts.
	sb.WriteString("\n  ■ SNAPSHOT ALERTS\n")
	for _, rep := range batch.InOrder() {
		alerts := snapshotAlerts(rep)
		if len(alerts) == 0 {
			sb.WriteString(fmt.Sprintf("    %s: none\n", rep.Ticker))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s:\n", rep.Ticker))
		for _, a := range alerts {
			sb.WriteString(fmt.Sprintf("      - %s\n", a))
		}
	}
	sb.WriteString(thinLine + "\n")

	// Quarterly working-capital alerts.
	sb.WriteString("\n  ■ QUARTERLY ALERTS\n")
	for _, rep := range batch.InOrder() {
		if rep.WorkingCapital == nil || len(rep.WorkingCapital.Alerts) == 0 {
			sb.WriteString(fmt.Sprintf("    %s: none\n", rep.Ticker))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s:\n", rep.Ticker))
		for _, a := range rep.WorkingCapital.Alerts {
			sb.WriteString(fmt.Sprintf("      - %s\n", a))
		}
	}
	sb.WriteString(thinLine + "\n")

	// Multi-year trends and forecasts.
	sb.WriteString("\n  ■ MULTI-YEAR & FORECAST\n")
	for _, rep := range batch.InOrder() {
		sb.WriteString(fmt.Sprintf("    %s =>%s%s\n", rep.Ticker, trendText(rep.AnnualTrend), forecastText(rep)))
	}

	// Failed tickers.
	if len(batch.Errors) > 0 {
		sb.WriteString(thinLine + "\n")
		sb.WriteString("\n  ■ ERRORS\n")
		for _, ticker := range errorTickers(batch) {
			sb.WriteString(fmt.Sprintf("    %s: %s\n", ticker, batch.Errors[ticker]))
		}
	}

	sb.WriteString("\n" + line + "\n")
	return sb.String(), nil
}

// GenerateHTML renders the self-contained HTML report with inline SVG
// trend charts.
func GenerateHTML(batch *models.BatchReport, cfg Config) (string, error) {
	if batch == nil {
		return "", fmt.Errorf("batch report is nil")
	}

	data := buildReportData(batch, cfg)

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// ════════════════════════════════════════════════════════════════════
// Template data
// ════════════════════════════════════════════════════════════════════

// ReportData is the template model passed to the HTML template.
type ReportData struct {
	Title       string
	MainTicker  string
	CompanyName string
	GeneratedAt string

	Sections []TickerSection

	// Peer comparison table, present with two or more finished tickers.
	ShowComparison bool
	ComparisonCols []string
	ComparisonRows []ComparisonRow

	Errors []ErrorRow
}

// TickerSection is one ticker's rendered block.
type TickerSection struct {
	Ticker      string
	CompanyName string
	FormType    string
	FilingDate  string
	Period      string

	Metrics []RatioRow
	Alerts  []string

	TrendSummary   string
	ForecastLine   string
	AnnualChart    template.HTML
	QuarterlyChart template.HTML
}

// RatioRow represents a key-value metric row.
type RatioRow struct {
	Label string
	Value string
}

// ComparisonRow is one ticker's row in the peer comparison table.
type ComparisonRow struct {
	Ticker string
	Main   bool
	Cells  []string
}

// ErrorRow reports a ticker whose analysis failed.
type ErrorRow struct {
	Ticker  string
	Message string
}

func buildReportData(batch *models.BatchReport, cfg Config) ReportData {
	data := ReportData{
		Title:      cfg.Title,
		MainTicker: batch.Main,
	}

	if rep, ok := batch.Reports[batch.Main]; ok {
		data.CompanyName = rep.CompanyName
		data.GeneratedAt = rep.GeneratedAt.Format("02 Jan 2006 15:04 MST")
	}
	if data.Title == "" {
		data.Title = fmt.Sprintf("%s — Filing Analysis", batch.Main)
	}

	for _, rep := range batch.InOrder() {
		data.Sections = append(data.Sections, buildTickerSection(rep, cfg))
	}

	if len(data.Sections) > 1 {
		data.ShowComparison = true
		data.ComparisonCols = snapshotColumns
		for _, rep := range batch.InOrder() {
			data.ComparisonRows = append(data.ComparisonRows, comparisonRow(rep, batch.Main))
		}
	}

	for _, ticker := range errorTickers(batch) {
		data.Errors = append(data.Errors, ErrorRow{Ticker: ticker, Message: batch.Errors[ticker]})
	}

	return data
}

func buildTickerSection(rep *models.TickerReport, cfg Config) TickerSection {
	sec := TickerSection{
		Ticker:      rep.Ticker,
		CompanyName: rep.CompanyName,
		Alerts:      rep.Alerts(),
	}

	if snap := latestSnapshot(rep); snap != nil {
		sec.FormType = string(snap.Meta.FormType)
		sec.FilingDate = snap.Meta.FilingDate
		sec.Period = snap.Period
		for _, col := range snapshotColumns {
			if v, ok := snap.Metric(col); ok {
				sec.Metrics = append(sec.Metrics, RatioRow{Label: col, Value: utils.FormatAbbrev(v)})
			}
		}
	}

	sec.TrendSummary = strings.TrimSpace(trendText(rep.AnnualTrend))
	sec.ForecastLine = strings.TrimSpace(forecastText(rep))

	if rep.AnnualTrend != nil && len(rep.AnnualTrend.Revenue) > 0 {
		chartCfg := cfg.ChartCfg
		chartCfg.Title = fmt.Sprintf("%s Annual Revenue", rep.Ticker)
		sec.AnnualChart = template.HTML(TrendChart(
			rep.AnnualTrend.Revenue, rep.AnnualTrend.RevenueForecast,
			rep.AnnualTrend.ForecastStrategy, chartCfg))
	}
	if rep.QuarterlyTrend != nil && len(rep.QuarterlyTrend.Revenue) > 0 {
		chartCfg := cfg.ChartCfg
		chartCfg.Title = fmt.Sprintf("%s Quarterly Revenue", rep.Ticker)
		sec.QuarterlyChart = template.HTML(TrendChart(
			rep.QuarterlyTrend.Revenue, rep.QuarterlyTrend.RevenueForecast,
			rep.QuarterlyTrend.ForecastStrategy, chartCfg))
	}

	return sec
}

func comparisonRow(rep *models.TickerReport, mainTicker string) ComparisonRow {
	row := ComparisonRow{Ticker: rep.Ticker, Main: rep.Ticker == mainTicker}
	snap := latestSnapshot(rep)
	for _, col := range snapshotColumns {
		if snap != nil {
			if v, ok := snap.Metric(col); ok {
				row.Cells = append(row.Cells, utils.FormatAbbrev(v))
				continue
			}
		}
		row.Cells = append(row.Cells, "—")
	}
	return row
}

// ════════════════════════════════════════════════════════════════════
// Shared helpers
// ════════════════════════════════════════════════════════════════════

// latestSnapshot prefers the annual snapshot and falls back to the
// quarterly one, matching how the summary table is assembled.
func latestSnapshot(rep *models.TickerReport) *models.FilingSnapshot {
	if rep.Annual != nil {
		return rep.Annual
	}
	return rep.Quarterly
}

// snapshotAlerts merges the annual and quarterly single-filing alerts.
func snapshotAlerts(rep *models.TickerReport) []string {
	var out []string
	if rep.Annual != nil {
		out = append(out, rep.Annual.Alerts...)
	}
	if rep.Quarterly != nil {
		out = append(out, rep.Quarterly.Alerts...)
	}
	return out
}

// trendText summarizes average YoY growth and CAGR with a qualitative tag.
func trendText(b *models.TrendBundle) string {
	if b == nil {
		return " Not enough data for yoy growth."
	}

	var text string
	if len(b.RevenueGrowth) > 0 {
		var sum float64
		for _, g := range b.RevenueGrowth {
			sum += g.Pct
		}
		avg := sum / float64(len(b.RevenueGrowth))
		text = fmt.Sprintf(" Average yoy rev growth: %.2f%%.", avg)
		if avg > 20.0 {
			text += " Strong growth."
		} else if avg < 0.0 {
			text += " Revenue declining yoy."
		}
	} else {
		text = " Not enough data for yoy growth."
	}

	if b.RevenueCAGR != nil {
		text += fmt.Sprintf(" CAGR= %.2f%%.", *b.RevenueCAGR)
		if *b.RevenueCAGR > 15.0 {
			text += " Multi-year growth is robust."
		} else if *b.RevenueCAGR < 0.0 {
			text += " Overall revenue has contracted."
		}
	}
	return text
}

// forecastText renders the annual and quarterly revenue projections.
func forecastText(rep *models.TickerReport) string {
	var annual, quarterly float64
	strategy := ""
	if rep.AnnualTrend != nil {
		annual = rep.AnnualTrend.RevenueForecast
		strategy = rep.AnnualTrend.ForecastStrategy
	}
	if rep.QuarterlyTrend != nil {
		quarterly = rep.QuarterlyTrend.RevenueForecast
		if strategy == "" {
			strategy = rep.QuarterlyTrend.ForecastStrategy
		}
	}
	if annual == 0 && quarterly == 0 {
		return ""
	}
	return fmt.Sprintf(" Forecast(annual)=%s, Forecast(quarterly)=%s [%s]",
		utils.FormatAbbrev(annual), utils.FormatAbbrev(quarterly), strategy)
}

// errorTickers returns failed tickers in a stable order: batch order
// first, then tickers that never made it into Order.
func errorTickers(batch *models.BatchReport) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range batch.Order {
		if _, ok := batch.Errors[t]; ok {
			out = append(out, t)
			seen[t] = true
		}
	}
	var rest []string
	for t := range batch.Errors {
		if !seen[t] {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
