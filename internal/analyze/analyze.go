// Package analyze runs the per-ticker analysis pipeline and fans it out
// across a main ticker and its peers: retrieval, metric snapshots, trend
// series, working-capital alerts, and the revenue forecast.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/filinglens/internal/analysis/fundamental"
	"github.com/seenimoa/filinglens/internal/analysis/trend"
	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/forecast"
	"github.com/seenimoa/filinglens/internal/logger"
	"github.com/seenimoa/filinglens/internal/resolve"
	"github.com/seenimoa/filinglens/internal/retrieval"
	"github.com/seenimoa/filinglens/internal/rules"
	"github.com/seenimoa/filinglens/pkg/models"
	"github.com/seenimoa/filinglens/pkg/utils"
)

// ErrInvalidTicker reports a symbol that failed validation before any
// retrieval was attempted.
var ErrInvalidTicker = errors.New("invalid ticker")

// Analyzer ties a retrieval source to the resolver, metrics engine, trend
// engine, and forecast strategy.
type Analyzer struct {
	source   retrieval.Source
	resolver *resolve.Resolver
	strategy forecast.Strategy
	rules    []rules.Rule
	th       config.AlertThresholds

	years       int
	quarters    int
	concurrency int
}

// New builds an Analyzer from configuration. Configuration errors (an
// unknown strategy, a malformed rule, an unreadable synonym overlay) fail
// here rather than surfacing per ticker later.
func New(cfg *config.Config, src retrieval.Source) (*Analyzer, error) {
	set := resolve.DefaultSynonyms()
	if cfg.Synonyms.File != "" {
		overlay, err := resolve.LoadSynonymsFile(cfg.Synonyms.File)
		if err != nil {
			return nil, fmt.Errorf("synonyms overlay: %w", err)
		}
		set = set.Merge(overlay)
	}

	strategy := forecast.Default()
	if cfg.Forecast.Strategy != "" {
		s, ok := forecast.ByName(cfg.Forecast.Strategy)
		if !ok {
			return nil, fmt.Errorf("unknown forecast strategy %q", cfg.Forecast.Strategy)
		}
		strategy = s
	}

	compiled, err := rules.Compile(cfg.Rules.Expressions)
	if err != nil {
		return nil, fmt.Errorf("alert rules: %w", err)
	}

	years := cfg.Analysis.Years
	if years <= 0 {
		years = 3
	}
	quarters := cfg.Analysis.Quarters
	if quarters <= 0 {
		quarters = 10
	}
	concurrency := cfg.Analysis.ConcurrentTickers
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Analyzer{
		source:      src,
		resolver:    resolve.NewResolver(set),
		strategy:    strategy,
		rules:       compiled,
		th:          cfg.Alerts,
		years:       years,
		quarters:    quarters,
		concurrency: concurrency,
	}, nil
}

// Strategy returns the forecast strategy in use.
func (a *Analyzer) Strategy() forecast.Strategy { return a.strategy }

// WithStrategy returns a copy of the analyzer forecasting with the given
// strategy instance instead of a configured name.
func (a *Analyzer) WithStrategy(s forecast.Strategy) *Analyzer {
	dup := *a
	dup.strategy = s
	return &dup
}

// Resolver returns the synonym resolver in use.
func (a *Analyzer) Resolver() *resolve.Resolver { return a.resolver }

// Tune returns a copy of the analyzer with per-request overrides applied.
// Positive years/quarters replace the configured history depths, a negative
// value disables that basis entirely, and zero keeps the configured one. An
// empty strategy name keeps the configured strategy.
func (a *Analyzer) Tune(years, quarters int, strategyName string) (*Analyzer, error) {
	dup := *a
	if years != 0 {
		dup.years = years
	}
	if quarters != 0 {
		dup.quarters = quarters
	}
	if strategyName != "" {
		s, ok := forecast.ByName(strategyName)
		if !ok {
			return nil, fmt.Errorf("unknown forecast strategy %q", strategyName)
		}
		dup.strategy = s
	}
	return &dup, nil
}

// TickerResult pairs a finished ticker with its report or error.
type TickerResult struct {
	Ticker string               `json:"ticker"`
	Report *models.TickerReport `json:"report,omitempty"`
	Err    error                `json:"-"`
}

// Run analyzes the main ticker and its peers concurrently. A peer's
// failure is recorded without aborting the rest; the main ticker's failure
// fails the batch (the partial batch is still returned alongside the
// error), as does a canceled context.
func (a *Analyzer) Run(ctx context.Context, mainTicker string, peers ...string) (*models.BatchReport, error) {
	return a.run(ctx, mainTicker, peers, nil)
}

// RunStream is Run with a callback invoked as each ticker finishes.
// Callbacks are serialized.
func (a *Analyzer) RunStream(ctx context.Context, mainTicker string, peers []string, emit func(TickerResult)) (*models.BatchReport, error) {
	return a.run(ctx, mainTicker, peers, emit)
}

func (a *Analyzer) run(ctx context.Context, mainTicker string, peers []string, emit func(TickerResult)) (*models.BatchReport, error) {
	main := utils.NormalizeTicker(mainTicker)
	if !utils.ValidTicker(main) {
		return nil, fmt.Errorf("%w %q", ErrInvalidTicker, mainTicker)
	}

	batch := &models.BatchReport{
		Main:    main,
		Order:   []string{main},
		Reports: make(map[string]*models.TickerReport),
		Errors:  make(map[string]string),
	}

	seen := map[string]bool{main: true}
	for _, p := range peers {
		peer := utils.NormalizeTicker(p)
		if peer == "" || seen[peer] {
			continue
		}
		if !utils.ValidTicker(peer) {
			logger.Warn(ctx, "skipping invalid peer ticker", "ticker", p)
			batch.Errors[peer] = "invalid ticker"
			continue
		}
		seen[peer] = true
		batch.Order = append(batch.Order, peer)
	}

	var mu sync.Mutex
	var mainErr error
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, ticker := range batch.Order {
		g.Go(func() error {
			rep, err := a.AnalyzeTicker(gctx, ticker)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.ErrorWithErr(gctx, "ticker analysis failed", err, "ticker", ticker)
				batch.Errors[ticker] = err.Error()
				if ticker == main {
					mainErr = err
				}
			} else {
				batch.Reports[ticker] = rep
			}
			if emit != nil {
				emit(TickerResult{Ticker: ticker, Report: rep, Err: err})
			}
			return nil // non-fatal
		})
	}

	if err := g.Wait(); err != nil {
		return batch, err
	}
	if err := ctx.Err(); err != nil {
		return batch, err
	}
	if mainErr != nil {
		return batch, mainErr
	}
	return batch, nil
}

// AnalyzeTicker runs the whole pipeline for one ticker.
func (a *Analyzer) AnalyzeTicker(ctx context.Context, ticker string) (*models.TickerReport, error) {
	ticker = utils.NormalizeTicker(ticker)
	if !utils.ValidTicker(ticker) {
		return nil, fmt.Errorf("%w %q", ErrInvalidTicker, ticker)
	}

	ot := logger.StartOperation(ctx, "analyze_ticker", "ticker", ticker)
	rep, err := a.analyze(ot.Context(), ticker)
	if err != nil {
		ot.EndWithError(err)
		return nil, err
	}
	ot.End("alerts", len(rep.Alerts()))
	return rep, nil
}

// SnapshotLatest computes the metric snapshot of the ticker's most recent
// filing of the given form.
func (a *Analyzer) SnapshotLatest(ctx context.Context, ticker string, form models.FormType) (*models.FilingSnapshot, error) {
	ticker = utils.NormalizeTicker(ticker)
	if !utils.ValidTicker(ticker) {
		return nil, fmt.Errorf("%w %q", ErrInvalidTicker, ticker)
	}
	f, err := a.source.Statements(ctx, ticker, form)
	if err != nil {
		return nil, err
	}
	return a.snapshot(f), nil
}

// ForecastRevenue builds the revenue trend and one-step forecast over the
// ticker's filing history of one form. periods <= 0 uses the configured
// depth for that form.
func (a *Analyzer) ForecastRevenue(ctx context.Context, ticker string, form models.FormType, periods int) (*models.TrendBundle, error) {
	ticker = utils.NormalizeTicker(ticker)
	if !utils.ValidTicker(ticker) {
		return nil, fmt.Errorf("%w %q", ErrInvalidTicker, ticker)
	}
	if periods <= 0 {
		if form == models.FormQuarterly {
			periods = a.quarters
		} else {
			periods = a.years
		}
	}

	filings, err := a.history(ctx, ticker, form, periods)
	if err != nil {
		return nil, err
	}
	if len(filings) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, retrieval.ErrNoFilings)
	}

	bundle := trend.Bundle(incomeTables(filings), a.resolver)
	a.forecastInto(ctx, &bundle, ticker, form == models.FormQuarterly)
	return &bundle, nil
}

func (a *Analyzer) analyze(ctx context.Context, ticker string) (*models.TickerReport, error) {
	var annuals, quarterlies []*models.FilingStatements
	var err error
	if a.years > 0 {
		annuals, err = a.history(ctx, ticker, models.FormAnnual, a.years)
		if err != nil {
			return nil, err
		}
	}
	if a.quarters > 0 {
		quarterlies, err = a.history(ctx, ticker, models.FormQuarterly, a.quarters)
		if err != nil {
			return nil, err
		}
	}
	if len(annuals) == 0 && len(quarterlies) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, retrieval.ErrNoFilings)
	}

	rep := &models.TickerReport{
		Ticker:      ticker,
		GeneratedAt: time.Now(),
	}

	if len(annuals) > 0 {
		rep.CompanyName = annuals[0].Meta.CompanyName
		rep.Annual = a.snapshot(annuals[0])

		bundle := trend.Bundle(incomeTables(annuals), a.resolver)
		a.forecastInto(ctx, &bundle, ticker, false)
		rep.AnnualTrend = &bundle
	}

	if len(quarterlies) > 0 {
		if rep.CompanyName == "" {
			rep.CompanyName = quarterlies[0].Meta.CompanyName
		}
		rep.Quarterly = a.snapshot(quarterlies[0])

		bundle := trend.Bundle(incomeTables(quarterlies), a.resolver)
		a.forecastInto(ctx, &bundle, ticker, true)
		rep.QuarterlyTrend = &bundle

		wc := trend.BuildWorkingCapital(
			balanceTables(quarterlies), cashflowTables(quarterlies), a.resolver, a.th)
		rep.WorkingCapital = &wc
	}

	for _, alert := range rep.Alerts() {
		logger.Alert(ctx, ticker, alert)
	}
	return rep, nil
}

// history fetches up to n filings of the form. A ticker with no filings of
// this form is an omission, not an error; an unknown ticker or a transport
// failure propagates.
func (a *Analyzer) history(ctx context.Context, ticker string, form models.FormType, n int) ([]*models.FilingStatements, error) {
	filings, err := a.source.StatementsHistory(ctx, ticker, form, n)
	if err != nil {
		if errors.Is(err, retrieval.ErrNoFilings) {
			logger.Debug(ctx, "no filings", "ticker", ticker, "form", string(form))
			return nil, nil
		}
		return nil, err
	}
	for _, f := range filings {
		logger.Filing(ctx, ticker, string(f.Meta.FormType), f.Meta.AccessionNumber,
			"filing_date", f.Meta.FilingDate)
	}
	return filings, nil
}

// snapshot computes the single-filing metric set for a filing's latest
// period and layers the configured rule alerts on the built-ins.
func (a *Analyzer) snapshot(f *models.FilingStatements) *models.FilingSnapshot {
	snap := fundamental.Compute(f.Balance, f.Income, f.CashFlow, f.LatestPeriod(), a.resolver, a.th)
	snap.Meta = f.Meta
	snap.Alerts = append(snap.Alerts, rules.Evaluate(a.rules, snap.Metrics)...)
	return &snap
}

func (a *Analyzer) forecastInto(ctx context.Context, b *models.TrendBundle, ticker string, quarterly bool) {
	b.RevenueForecast = a.strategy.Forecast(b.Revenue, quarterly)
	b.ForecastStrategy = a.strategy.Name()
	logger.Forecast(ctx, ticker, b.ForecastStrategy, b.RevenueForecast, "quarterly", quarterly)
}

// --- table extraction helpers ---

func incomeTables(filings []*models.FilingStatements) []*models.StatementTable {
	out := make([]*models.StatementTable, 0, len(filings))
	for _, f := range filings {
		if f.Income != nil {
			out = append(out, f.Income)
		}
	}
	return out
}

func balanceTables(filings []*models.FilingStatements) []*models.StatementTable {
	out := make([]*models.StatementTable, 0, len(filings))
	for _, f := range filings {
		if f.Balance != nil {
			out = append(out, f.Balance)
		}
	}
	return out
}

func cashflowTables(filings []*models.FilingStatements) []*models.StatementTable {
	out := make([]*models.StatementTable, 0, len(filings))
	for _, f := range filings {
		if f.CashFlow != nil {
			out = append(out, f.CashFlow)
		}
	}
	return out
}
