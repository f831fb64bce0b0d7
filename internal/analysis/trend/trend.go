// Package trend builds multi-period series from filed statements and
// derives growth rates, CAGR and working-capital alerts from them.
package trend

import (
	"fmt"
	"math"
	"sort"

	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/period"
	"github.com/seenimoa/filinglens/internal/resolve"
	"github.com/seenimoa/filinglens/pkg/models"
)

// BuildSeries extracts one concept across filings into a period-sorted
// series. Every period column of every table contributes once; annual
// reports restate prior years, so a period already collected from an
// earlier table is not overwritten by a later one.
func BuildSeries(tables []*models.StatementTable, concept resolve.Concept, res *resolve.Resolver) []models.SeriesPoint {
	seen := make(map[string]bool)
	var points []models.SeriesPoint

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, p := range t.Periods {
			key := period.Parse(p).String()
			if seen[key] {
				continue
			}
			r, ok := res.Resolve(concept, t, p)
			if !ok {
				continue
			}
			seen[key] = true
			points = append(points, models.SeriesPoint{Period: p, Value: r.Value})
		}
	}

	sortSeries(points)
	return points
}

// GrowthSeries computes period-over-period growth for a sorted series.
// An entry is omitted when its predecessor is zero; fewer than two points
// yield an empty result.
func GrowthSeries(series []models.SeriesPoint) []models.GrowthPoint {
	var out []models.GrowthPoint
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		if prev == 0 {
			continue
		}
		pct := (series[i].Value - prev) / math.Abs(prev) * 100.0
		out = append(out, models.GrowthPoint{Period: series[i].Period, Pct: pct})
	}
	return out
}

// CAGR computes the compound annual growth rate from the earliest to the
// latest point, as a percentage. Undefined (ok=false) when fewer than two
// points exist, when the endpoints are non-positive, or when the series
// spans less than one whole year.
func CAGR(series []models.SeriesPoint) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	first := series[0]
	last := series[len(series)-1]
	span := period.YearSpan(period.Parse(first.Period), period.Parse(last.Period))
	if span <= 0 || first.Value <= 0 || last.Value <= 0 {
		return 0, false
	}
	return (math.Pow(last.Value/first.Value, 1.0/float64(span)) - 1.0) * 100.0, true
}

// NegativeStreak counts consecutive negative values at the end of the
// series, walking most-recent backwards; any non-negative value stops the
// count.
func NegativeStreak(series []models.SeriesPoint) int {
	streak := 0
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Value >= 0 {
			break
		}
		streak++
	}
	return streak
}

// Spikes returns the growth entries exceeding thresholdPct versus the
// immediately preceding period.
func Spikes(series []models.SeriesPoint, thresholdPct float64) []models.GrowthPoint {
	var out []models.GrowthPoint
	for _, g := range GrowthSeries(series) {
		if g.Pct > thresholdPct {
			out = append(out, g)
		}
	}
	return out
}

// Bundle assembles the revenue and net-income trend picture across a set
// of income statements. The forecast fields are left for the caller, which
// owns strategy selection.
func Bundle(income []*models.StatementTable, res *resolve.Resolver) models.TrendBundle {
	rev := BuildSeries(income, resolve.Revenue, res)
	net := BuildSeries(income, resolve.NetIncome, res)

	b := models.TrendBundle{
		Revenue:         rev,
		NetIncome:       net,
		RevenueGrowth:   GrowthSeries(rev),
		NetIncomeGrowth: GrowthSeries(net),
	}
	if v, ok := CAGR(rev); ok {
		b.RevenueCAGR = &v
	}
	if v, ok := CAGR(net); ok {
		b.NetIncomeCAGR = &v
	}
	return b
}

// BuildWorkingCapital extracts the quarterly inventory, receivables and
// free-cash-flow series with their alerts.
func BuildWorkingCapital(balance, cashflow []*models.StatementTable, res *resolve.Resolver, th config.AlertThresholds) models.WorkingCapital {
	wc := models.WorkingCapital{
		Inventory:    BuildSeries(balance, resolve.Inventory, res),
		Receivables:  BuildSeries(balance, resolve.Receivables, res),
		FreeCashFlow: fcfSeries(cashflow, res),
	}
	wc.Alerts = QuarterlyAlerts(wc, th)
	return wc
}

// QuarterlyAlerts derives the multi-period alert strings for a quarterly
// working-capital picture.
func QuarterlyAlerts(wc models.WorkingCapital, th config.AlertThresholds) []string {
	var alerts []string

	if streak := NegativeStreak(wc.FreeCashFlow); th.FCFStreak > 0 && streak >= th.FCFStreak {
		last := wc.FreeCashFlow[len(wc.FreeCashFlow)-1].Period
		alerts = append(alerts, fmt.Sprintf("%d consecutive quarters of negative FCF (through %s)", streak, last))
	}
	for _, g := range Spikes(wc.Inventory, th.SpikePct) {
		alerts = append(alerts, fmt.Sprintf("Inventory spiked +%.2f%% from previous quarter to %s", g.Pct, g.Period))
	}
	for _, g := range Spikes(wc.Receivables, th.SpikePct) {
		alerts = append(alerts, fmt.Sprintf("Receivables spiked +%.2f%% from previous quarter to %s", g.Pct, g.Period))
	}

	return alerts
}

// --- helpers ---

// fcfSeries pairs operating cash flow with the capex fallback chain per
// period column; quarters where either side is unresolvable are left out
// rather than zero-filled.
func fcfSeries(tables []*models.StatementTable, res *resolve.Resolver) []models.SeriesPoint {
	seen := make(map[string]bool)
	var points []models.SeriesPoint

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, p := range t.Periods {
			key := period.Parse(p).String()
			if seen[key] {
				continue
			}
			ocf, ok := res.Resolve(resolve.OperatingCashFlow, t, p)
			if !ok {
				continue
			}
			capex, ok := res.Resolve(resolve.Capex, t, p)
			if !ok {
				continue
			}
			seen[key] = true
			points = append(points, models.SeriesPoint{Period: p, Value: ocf.Value - capex.Value})
		}
	}

	sortSeries(points)
	return points
}

func sortSeries(points []models.SeriesPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return period.Parse(points[i].Period).Compare(period.Parse(points[j].Period)) < 0
	})
}
