package fundamental

import (
	"fmt"

	"github.com/seenimoa/filinglens/internal/config"
)

// EvaluateAlerts applies the built-in threshold checks to a computed metric
// set. A check whose inputs are absent is skipped, never fired: a filer with
// no resolvable equity gets no leverage alert rather than a spurious one.
// All comparisons are strict, and the returned order is fixed.
func EvaluateAlerts(m map[string]float64, th config.AlertThresholds) []string {
	var alerts []string

	if v, ok := m[MetricNetMargin]; ok && v < th.MarginFloor {
		alerts = append(alerts, fmt.Sprintf("Net margin below %.1f%% (negative)", th.MarginFloor))
	}
	if v, ok := m[MetricDebtToEquity]; ok && v > th.LeverageCeiling {
		alerts = append(alerts, fmt.Sprintf("Debt-to-Equity above %.1f (high leverage)", th.LeverageCeiling))
	}
	// Low-return alerts only fire on weak positive returns; losses are
	// already covered by the margin alert.
	if v, ok := m[MetricROE]; ok && v > 0 && v < th.ROEFloor {
		alerts = append(alerts, fmt.Sprintf("ROE < %.1f%%", th.ROEFloor))
	}
	if v, ok := m[MetricROA]; ok && v > 0 && v < th.ROAFloor {
		alerts = append(alerts, fmt.Sprintf("ROA < %.1f%%", th.ROAFloor))
	}
	if nd, ok := m[MetricNetDebt]; ok && nd > 0 {
		if r, ok := m[MetricNetDebtEBITDA]; ok && r > th.NetDebtEBITDACeiling {
			alerts = append(alerts, fmt.Sprintf("Net Debt/EBITDA above %.1f (heavy leverage)", th.NetDebtEBITDACeiling))
		}
	}
	if v, ok := m[MetricInterestCoverage]; ok && v < th.InterestCoverageFloor {
		alerts = append(alerts, fmt.Sprintf("Interest coverage below %.1f (potential default risk)", th.InterestCoverageFloor))
	}

	return alerts
}
