package forecast

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/seenimoa/filinglens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// ARIMA Model Selection
// ════════════════════════════════════════════════════════════════════

const (
	minDataPoints  = 4
	seasonalPeriod = 4
)

// ARIMA forecasts one step ahead by fitting a small candidate set of
// integrated autoregressive models via conditional least squares and
// keeping the lowest-AIC fit. Negative forecasts clamp to 0: revenue
// cannot go below zero.
type ARIMA struct{}

// NewARIMA creates the default model-selection strategy.
func NewARIMA() *ARIMA { return &ARIMA{} }

func (s *ARIMA) Name() string { return "arima" }

func (s *ARIMA) Forecast(series []models.SeriesPoint, quarterly bool) float64 {
	if len(series) < minDataPoints {
		return 0
	}

	sorted := sortAscending(series)
	vals := make([]float64, len(sorted))
	for i, p := range sorted {
		vals[i] = p.Value
	}

	bestAIC := math.Inf(1)
	var forecast float64
	found := false
	for _, cand := range candidatesFor(len(vals), quarterly) {
		fit, err := cand.fit(vals)
		if err != nil {
			continue
		}
		// Strict comparison: the first-declared candidate wins exact ties.
		if fit.aic < bestAIC {
			bestAIC = fit.aic
			forecast = fit.next
			found = true
		}
	}
	if !found {
		return 0
	}
	return math.Max(forecast, 0)
}

// ────────────────────────────────────────────────────────────────────
// Candidate models
// ────────────────────────────────────────────────────────────────────

type candidate struct {
	name     string
	p, d, q  int
	seasonal bool // multiplicative (1,1,1)[4] seasonal terms plus a constant
}

// candidatesFor returns the candidate set for a series of n points.
// Short histories get low-order models only; quarterly series long
// enough for a seasonal lag of 4 also compete a seasonal variant.
func candidatesFor(n int, quarterly bool) []candidate {
	if n < 6 {
		return []candidate{
			{name: "ARIMA(0,1,1)", p: 0, d: 1, q: 1},
			{name: "ARIMA(1,1,0)", p: 1, d: 1, q: 0},
		}
	}
	cands := []candidate{
		{name: "ARIMA(1,1,1)", p: 1, d: 1, q: 1},
		{name: "ARIMA(1,1,0)", p: 1, d: 1, q: 0},
		{name: "ARIMA(0,1,1)", p: 0, d: 1, q: 1},
	}
	if quarterly {
		cands = append(cands, candidate{name: "SARIMA(1,1,1)(1,1,1)[4]", p: 1, d: 1, q: 1, seasonal: true})
	}
	return cands
}

type fitted struct {
	aic  float64
	next float64 // one-step-ahead forecast on the original scale
}

// stage records a series before one differencing step so the forecast
// can be integrated back to the original scale.
type stage struct {
	before []float64
	lag    int
}

func (c candidate) fit(series []float64) (fitted, error) {
	work := series
	var stages []stage
	if c.seasonal {
		if len(work) <= seasonalPeriod {
			return fitted{}, errors.New("series shorter than seasonal period")
		}
		stages = append(stages, stage{before: work, lag: seasonalPeriod})
		work = diff(work, seasonalPeriod)
	}
	for i := 0; i < c.d; i++ {
		if len(work) <= 1 {
			return fitted{}, errors.New("series too short to difference")
		}
		stages = append(stages, stage{before: work, lag: 1})
		work = diff(work, 1)
	}

	nParams := c.p + c.q
	if c.seasonal {
		nParams = 5 // constant, AR, MA, seasonal AR, seasonal MA
	}
	obs := len(work) - c.maxARLag()
	if obs < nParams+1 {
		return fitted{}, errors.New("insufficient differenced observations")
	}

	initial := make([]float64, nParams)
	for i := range initial {
		initial[i] = 0.1
	}
	if c.seasonal {
		initial[0] = mean(work)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			constant, ar, ma, ok := c.expand(x)
			if !ok {
				return math.Inf(1)
			}
			sse, _, _ := cssResiduals(work, constant, ar, ma)
			return sse
		},
	}
	res, err := optimize.Minimize(problem, initial, nil, &optimize.NelderMead{})
	if err != nil {
		return fitted{}, err
	}
	if res == nil || math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		return fitted{}, errors.New("fit did not converge")
	}

	constant, ar, ma, ok := c.expand(res.X)
	if !ok {
		return fitted{}, errors.New("fit left the stationary region")
	}
	sse, eps, nObs := cssResiduals(work, constant, ar, ma)

	sigma2 := sse / float64(nObs)
	if sigma2 < 1e-12 {
		sigma2 = 1e-12
	}
	logL := -0.5 * float64(nObs) * (math.Log(2*math.Pi) + math.Log(sigma2) + 1)
	aic := 2*float64(nParams+1) - 2*logL // +1 for the residual variance

	// One step ahead on the working series, then integrate the
	// differencing back in reverse order.
	n := len(work)
	next := constant
	for i, a := range ar {
		if idx := n - 1 - i; idx >= 0 {
			next += a * work[idx]
		}
	}
	for j, m := range ma {
		if idx := n - 1 - j; idx >= 0 {
			next += m * eps[idx]
		}
	}
	for i := len(stages) - 1; i >= 0; i-- {
		before := stages[i].before
		next += before[len(before)-stages[i].lag]
	}

	if math.IsNaN(next) || math.IsInf(next, 0) {
		return fitted{}, errors.New("degenerate forecast")
	}
	return fitted{aic: aic, next: next}, nil
}

func (c candidate) maxARLag() int {
	if c.seasonal {
		return seasonalPeriod + 1
	}
	return c.p
}

// expand turns the parameter vector into expanded lag-polynomial
// coefficients (index = lag-1). Parameters outside the unit interval
// are rejected to keep the residual recursion from diverging.
func (c candidate) expand(x []float64) (constant float64, ar, ma []float64, ok bool) {
	if c.seasonal {
		phi, theta, sphi, stheta := x[1], x[2], x[3], x[4]
		for _, v := range []float64{phi, theta, sphi, stheta} {
			if math.Abs(v) >= 1 {
				return 0, nil, nil, false
			}
		}
		ar = []float64{phi, 0, 0, sphi, -phi * sphi}
		ma = []float64{theta, 0, 0, stheta, theta * stheta}
		return x[0], ar, ma, true
	}
	for _, v := range x {
		if math.Abs(v) >= 1 {
			return 0, nil, nil, false
		}
	}
	ar = make([]float64, c.p)
	copy(ar, x[:c.p])
	ma = make([]float64, c.q)
	copy(ma, x[c.p:])
	return 0, ar, ma, true
}

// cssResiduals runs the conditional-sum-of-squares recursion,
// conditioning on the first maxARLag observations and zero pre-sample
// innovations.
func cssResiduals(w []float64, constant float64, ar, ma []float64) (sse float64, eps []float64, obs int) {
	eps = make([]float64, len(w))
	start := len(ar)
	for t := start; t < len(w); t++ {
		pred := constant
		for i, a := range ar {
			pred += a * w[t-1-i]
		}
		for j, m := range ma {
			if idx := t - 1 - j; idx >= 0 {
				pred += m * eps[idx]
			}
		}
		eps[t] = w[t] - pred
		sse += eps[t] * eps[t]
	}
	return sse, eps, len(w) - start
}

func diff(s []float64, lag int) []float64 {
	out := make([]float64, len(s)-lag)
	for i := range out {
		out[i] = s[i+lag] - s[i]
	}
	return out
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}
