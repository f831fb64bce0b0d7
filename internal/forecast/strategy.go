package forecast

import (
	"sort"
	"strings"
	"sync"

	"github.com/seenimoa/filinglens/internal/period"
	"github.com/seenimoa/filinglens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Strategy Interface
// ════════════════════════════════════════════════════════════════════

// Strategy defines the interface for a revenue forecasting strategy.
type Strategy interface {
	// Name returns the strategy identifier used for config selection.
	Name() string

	// Forecast produces a one-step-ahead value from a revenue series.
	// The series may arrive in any order; implementations sort by period.
	// Insufficient history or a failed fit yields 0, never an error.
	Forecast(series []models.SeriesPoint, quarterly bool) float64
}

// BuiltinStrategies returns all built-in strategies.
func BuiltinStrategies() []Strategy {
	return []Strategy{
		NewARIMA(),
		NewAvgGrowth(),
	}
}

var (
	regMu      sync.RWMutex
	registered []Strategy
)

// Register makes a caller-supplied strategy selectable by name alongside
// the built-ins. The newest registration of a name shadows older ones and
// any built-in of that name. Strategies must be safe for concurrent use.
func Register(s Strategy) {
	regMu.Lock()
	defer regMu.Unlock()
	registered = append(registered, s)
}

// All returns every selectable strategy: registered ones newest first,
// then the built-ins.
func All() []Strategy {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]Strategy, 0, len(registered)+2)
	for i := len(registered) - 1; i >= 0; i-- {
		out = append(out, registered[i])
	}
	return append(out, BuiltinStrategies()...)
}

// ByName returns the strategy with the given name, matched
// case-insensitively.
func ByName(name string) (Strategy, bool) {
	for _, s := range All() {
		if strings.EqualFold(s.Name(), name) {
			return s, true
		}
	}
	return nil, false
}

// Default returns the strategy used when none is configured.
func Default() Strategy { return NewARIMA() }

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

// sortAscending returns a copy of the series in chronological order.
func sortAscending(series []models.SeriesPoint) []models.SeriesPoint {
	out := make([]models.SeriesPoint, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool {
		return period.Parse(out[i].Period).Before(period.Parse(out[j].Period))
	})
	return out
}
