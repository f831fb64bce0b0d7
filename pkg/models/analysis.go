package models

import "time"

// SeriesPoint is one observation of a canonical concept in period order.
type SeriesPoint struct {
	Period string  `json:"period"` // label as filed, e.g., "FY2023", "Q3 2024"
	Value  float64 `json:"value"`
}

// GrowthPoint is the percentage change of a series entry versus the
// immediately preceding period. Pairs whose previous value is zero are
// omitted from growth series entirely.
type GrowthPoint struct {
	Period string  `json:"period"`
	Pct    float64 `json:"pct"`
}

// TrendBundle carries the multi-period results for one filing cadence
// (annual or quarterly). CAGR fields are nil when undefined: non-positive
// base, fewer than two distinct periods, or zero year span.
type TrendBundle struct {
	Revenue         []SeriesPoint `json:"revenue,omitempty"`
	NetIncome       []SeriesPoint `json:"net_income,omitempty"`
	RevenueGrowth   []GrowthPoint `json:"revenue_growth,omitempty"`
	NetIncomeGrowth []GrowthPoint `json:"net_income_growth,omitempty"`
	RevenueCAGR     *float64      `json:"revenue_cagr,omitempty"`
	NetIncomeCAGR   *float64      `json:"net_income_cagr,omitempty"`

	// RevenueForecast is the one-step-ahead point forecast. 0.0 is the
	// documented insufficient-data / failed-fit fallback, not an omission.
	RevenueForecast  float64 `json:"revenue_forecast"`
	ForecastStrategy string  `json:"forecast_strategy,omitempty"`
}

// WorkingCapital carries the quarterly working-capital series and the
// cross-period alerts raised against them (negative-FCF streaks, inventory
// and receivable spikes).
type WorkingCapital struct {
	Inventory    []SeriesPoint `json:"inventory,omitempty"`
	Receivables  []SeriesPoint `json:"receivables,omitempty"`
	FreeCashFlow []SeriesPoint `json:"free_cash_flow,omitempty"`
	Alerts       []string      `json:"alerts,omitempty"`
}

// TickerReport is the full analysis payload for one ticker, handed to the
// reporting sink. Optional sections are nil when the underlying filings were
// unavailable; they are never zero-filled.
type TickerReport struct {
	Ticker         string          `json:"ticker"`
	CompanyName    string          `json:"company_name,omitempty"`
	Annual         *FilingSnapshot `json:"annual,omitempty"`
	Quarterly      *FilingSnapshot `json:"quarterly,omitempty"`
	AnnualTrend    *TrendBundle    `json:"annual_trend,omitempty"`
	QuarterlyTrend *TrendBundle    `json:"quarterly_trend,omitempty"`
	WorkingCapital *WorkingCapital `json:"working_capital,omitempty"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Alerts collects every alert in the report in a stable order: annual
// snapshot, quarterly snapshot, then working-capital alerts.
func (r *TickerReport) Alerts() []string {
	var out []string
	if r.Annual != nil {
		out = append(out, r.Annual.Alerts...)
	}
	if r.Quarterly != nil {
		out = append(out, r.Quarterly.Alerts...)
	}
	if r.WorkingCapital != nil {
		out = append(out, r.WorkingCapital.Alerts...)
	}
	return out
}

// BatchReport aggregates per-ticker reports for a main ticker and its peers.
// Order preserves insertion order (main ticker first) regardless of which
// pipeline finished first; Errors records tickers whose analysis failed
// without aborting the rest of the batch.
type BatchReport struct {
	Main    string                   `json:"main"`
	Order   []string                 `json:"order"`
	Reports map[string]*TickerReport `json:"reports"`
	Errors  map[string]string        `json:"errors,omitempty"`
}

// InOrder returns the reports that completed, in insertion order.
func (b *BatchReport) InOrder() []*TickerReport {
	out := make([]*TickerReport, 0, len(b.Order))
	for _, t := range b.Order {
		if r, ok := b.Reports[t]; ok {
			out = append(out, r)
		}
	}
	return out
}
