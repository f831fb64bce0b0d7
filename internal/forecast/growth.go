package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/seenimoa/filinglens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Average Growth Strategy
// ════════════════════════════════════════════════════════════════════

// AvgGrowth applies the mean period-over-period growth rate to the
// last known value. A dependency-light alternative to model fitting
// for callers that want an explainable number.
type AvgGrowth struct{}

// NewAvgGrowth creates an average-growth strategy.
func NewAvgGrowth() *AvgGrowth { return &AvgGrowth{} }

func (s *AvgGrowth) Name() string { return "avg-growth" }

func (s *AvgGrowth) Forecast(series []models.SeriesPoint, _ bool) float64 {
	if len(series) == 0 {
		return 0
	}

	sorted := sortAscending(series)
	last := sorted[len(sorted)-1].Value
	if len(sorted) < 2 {
		return math.Max(last, 0)
	}

	// Growth rates over consecutive pairs; non-positive predecessors
	// contribute nothing.
	var rates []float64
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].Value
		if prev > 0 {
			rates = append(rates, (sorted[i].Value-prev)/prev)
		}
	}
	if len(rates) == 0 {
		return math.Max(last, 0)
	}

	avg := stat.Mean(rates, nil)
	return math.Max(last*(1+avg), 0)
}
