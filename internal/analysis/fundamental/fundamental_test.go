package fundamental

import (
	"math"
	"reflect"
	"testing"

	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/resolve"
	"github.com/seenimoa/filinglens/pkg/models"
)

// --- fixtures ---

func healthyBalance() *models.StatementTable {
	t := &models.StatementTable{Ticker: "ACME", Type: models.StatementBalance, Periods: []string{"FY2024"}}
	t.AddRow("Total current assets", models.Num(50))
	t.AddRow("Total current liabilities", models.Num(25))
	t.AddRow("Total assets", models.Num(200))
	t.AddRow("Total liabilities", models.Num(120))
	t.AddRow("Total stockholders' equity", models.Num(80))
	t.AddRow("Cash and cash equivalents", models.Num(30))
	t.AddRow("Long-term debt", models.Num(60))
	t.AddRow("Goodwill", models.Num(10))
	t.AddRow("Intangible assets, net", models.Num(5))
	t.AddRow("Operating lease liabilities", models.Num(8))
	return t
}

func healthyIncome() *models.StatementTable {
	t := &models.StatementTable{Ticker: "ACME", Type: models.StatementIncome, Periods: []string{"FY2024"}}
	t.AddRow("Total net sales", models.Num(400))
	t.AddRow("Cost of sales", models.Num(-240))
	t.AddRow("Operating expenses", models.Num(-80))
	t.AddRow("Interest expense", models.Num(-6))
	t.AddRow("Provision for income taxes", models.Num(-10))
	t.AddRow("Net income", models.Num(40))
	return t
}

func healthyCashFlow() *models.StatementTable {
	t := &models.StatementTable{Ticker: "ACME", Type: models.StatementCashFlow, Periods: []string{"FY2024"}}
	t.AddRow("Net cash provided by operating activities", models.Num(70))
	t.AddRow("Depreciation and amortization", models.Num(20))
	t.AddRow("Purchases of property, plant and equipment", models.Num(-30))
	return t
}

func defaultThresholds() config.AlertThresholds {
	return config.DefaultAlertThresholds()
}

func checkMetric(t *testing.T, snap models.FilingSnapshot, key string, want float64) {
	t.Helper()
	got, ok := snap.Metric(key)
	if !ok {
		t.Errorf("%s: missing from metrics", key)
		return
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %.4f, want %.4f", key, got, want)
	}
}

func checkAbsent(t *testing.T, snap models.FilingSnapshot, key string) {
	t.Helper()
	if v, ok := snap.Metric(key); ok {
		t.Errorf("%s: should be absent, got %.4f", key, v)
	}
}

// --- Compute ---

func TestComputeHealthyFiler(t *testing.T) {
	res := resolve.NewDefaultResolver()
	snap := Compute(healthyBalance(), healthyIncome(), healthyCashFlow(), "FY2024", res, defaultThresholds())

	if snap.Period != "FY2024" {
		t.Errorf("Period: got %q, want %q", snap.Period, "FY2024")
	}

	// Income statement
	checkMetric(t, snap, MetricRevenue, 400)
	checkMetric(t, snap, MetricGrossProfit, 160) // derived: 400 - 240
	checkMetric(t, snap, MetricGrossMargin, 40)
	checkMetric(t, snap, MetricOperatingExpenses, 80) // sign-flipped
	checkMetric(t, snap, MetricOperatingMargin, 20)   // (160-80)/400
	checkMetric(t, snap, MetricNetIncome, 40)
	checkMetric(t, snap, MetricNetMargin, 10)
	checkMetric(t, snap, MetricEBIT, 80)
	checkMetric(t, snap, MetricEBITDA, 100)
	checkMetric(t, snap, MetricInterestExpense, 6) // sign-flipped
	checkMetric(t, snap, MetricIncomeTax, 10)      // sign-flipped
	checkMetric(t, snap, MetricEBITStandard, 56)   // 40 + 6 + 10
	checkMetric(t, snap, MetricEBITDAStandard, 76)
	checkMetric(t, snap, MetricInterestCoverage, 56.0/6.0)

	// Balance sheet
	checkMetric(t, snap, MetricCurrentRatio, 2)
	checkMetric(t, snap, MetricDebtToEquity, 0.75) // 60 / 80
	checkMetric(t, snap, MetricEquityRatio, 40)
	checkMetric(t, snap, MetricROE, 50)
	checkMetric(t, snap, MetricROA, 20)
	checkMetric(t, snap, MetricIntangibleRatio, 2.5)
	checkMetric(t, snap, MetricGoodwillRatio, 5)
	checkMetric(t, snap, MetricLeaseRatio, 4)
	checkMetric(t, snap, MetricTangibleEquity, 65) // 80 - 5 - 10
	checkMetric(t, snap, MetricNetDebt, 38)        // 60 + 8 - 30
	checkMetric(t, snap, MetricNetDebtEBITDA, 0.38)

	// Cash flow
	checkMetric(t, snap, MetricOperatingCashFlow, 70)
	checkMetric(t, snap, MetricCapex, 30) // sign-flipped
	checkMetric(t, snap, MetricFreeCashFlow, 40)

	if len(snap.Alerts) != 0 {
		t.Errorf("healthy filer should produce no alerts, got %v", snap.Alerts)
	}
}

func TestComputePrefersReportedGrossProfit(t *testing.T) {
	income := healthyIncome()
	income.AddRow("Gross profit", models.Num(150)) // reported, inconsistent with rev-cost on purpose

	res := resolve.NewDefaultResolver()
	snap := Compute(nil, income, nil, "FY2024", res, defaultThresholds())

	checkMetric(t, snap, MetricGrossProfit, 150)
	checkMetric(t, snap, MetricGrossMargin, 37.5)
}

func TestComputeOmitsWithoutRevenue(t *testing.T) {
	income := &models.StatementTable{Ticker: "ACME", Type: models.StatementIncome, Periods: []string{"FY2024"}}
	income.AddRow("Net income", models.Num(40))

	res := resolve.NewDefaultResolver()
	snap := Compute(healthyBalance(), income, nil, "FY2024", res, defaultThresholds())

	checkAbsent(t, snap, MetricRevenue)
	checkAbsent(t, snap, MetricGrossProfit)
	checkAbsent(t, snap, MetricGrossMargin)
	checkAbsent(t, snap, MetricNetMargin)

	// Balance-sheet ratios are unaffected.
	checkMetric(t, snap, MetricCurrentRatio, 2)
	checkMetric(t, snap, MetricROE, 50)
}

func TestComputeZeroRevenueSuppressesMargins(t *testing.T) {
	income := &models.StatementTable{Ticker: "SHEL", Type: models.StatementIncome, Periods: []string{"FY2024"}}
	income.AddRow("Total net sales", models.Num(0))
	income.AddRow("Net income", models.Num(-5))

	res := resolve.NewDefaultResolver()
	snap := Compute(nil, income, nil, "FY2024", res, defaultThresholds())

	// Revenue itself is a resolved value of zero, not missing data.
	checkMetric(t, snap, MetricRevenue, 0)
	checkAbsent(t, snap, MetricGrossMargin)
	checkAbsent(t, snap, MetricNetMargin)

	// No margin alert without a computable margin.
	for _, a := range snap.Alerts {
		t.Errorf("unexpected alert %q", a)
	}
}

func TestComputeZeroEquitySuppressesLeverage(t *testing.T) {
	balance := &models.StatementTable{Ticker: "ACME", Type: models.StatementBalance, Periods: []string{"FY2024"}}
	balance.AddRow("Total assets", models.Num(200))
	balance.AddRow("Total stockholders' equity", models.Num(0))
	balance.AddRow("Long-term debt", models.Num(60))

	res := resolve.NewDefaultResolver()
	snap := Compute(balance, healthyIncome(), nil, "FY2024", res, defaultThresholds())

	checkAbsent(t, snap, MetricDebtToEquity)
	checkAbsent(t, snap, MetricROE)
	checkAbsent(t, snap, MetricEquityRatio)
	checkMetric(t, snap, MetricTangibleEquity, 0)
	checkMetric(t, snap, MetricROA, 20)
}

func TestComputeLeverageFallsBackToLiabilities(t *testing.T) {
	balance := &models.StatementTable{Ticker: "ACME", Type: models.StatementBalance, Periods: []string{"FY2024"}}
	balance.AddRow("Total liabilities", models.Num(120))
	balance.AddRow("Total stockholders' equity", models.Num(80))
	balance.AddRow("Cash and cash equivalents", models.Num(30))

	res := resolve.NewDefaultResolver()
	snap := Compute(balance, nil, nil, "FY2024", res, defaultThresholds())

	checkMetric(t, snap, MetricDebtToEquity, 1.5) // 120 / 80, liabilities form

	// Net Debt never borrows the liabilities total.
	checkAbsent(t, snap, MetricNetDebt)
}

func TestComputeCapexFallbackFeedsFreeCashFlow(t *testing.T) {
	cash := &models.StatementTable{Ticker: "ACME", Type: models.StatementCashFlow, Periods: []string{"FY2024"}}
	cash.AddRow("Net cash provided by operating activities", models.Num(70))
	cash.AddRow("Net cash used in investing activities", models.Num(-50))

	res := resolve.NewDefaultResolver()
	snap := Compute(nil, nil, cash, "FY2024", res, defaultThresholds())

	checkMetric(t, snap, MetricCapex, 50)
	checkMetric(t, snap, MetricFreeCashFlow, 20)
}

func TestComputeNoCapexOmitsFreeCashFlow(t *testing.T) {
	cash := &models.StatementTable{Ticker: "ACME", Type: models.StatementCashFlow, Periods: []string{"FY2024"}}
	cash.AddRow("Net cash provided by operating activities", models.Num(70))
	cash.AddRow("Net cash used in investing activities", models.Num(200)) // net inflow, no capex signal

	res := resolve.NewDefaultResolver()
	snap := Compute(nil, nil, cash, "FY2024", res, defaultThresholds())

	checkMetric(t, snap, MetricOperatingCashFlow, 70)
	checkAbsent(t, snap, MetricCapex)
	checkAbsent(t, snap, MetricFreeCashFlow)
}

func TestComputeSelectsRequestedPeriod(t *testing.T) {
	income := &models.StatementTable{Ticker: "ACME", Type: models.StatementIncome, Periods: []string{"Q3 2024", "Q2 2024"}}
	income.AddRow("Total net sales", models.Num(120), models.Num(100))
	income.AddRow("Net income", models.Num(12), models.Num(8))

	res := resolve.NewDefaultResolver()
	snap := Compute(nil, income, nil, "Q2 2024", res, defaultThresholds())

	checkMetric(t, snap, MetricRevenue, 100)
	checkMetric(t, snap, MetricNetIncome, 8)
	checkMetric(t, snap, MetricNetMargin, 8)
}

func TestComputeIdempotent(t *testing.T) {
	res := resolve.NewDefaultResolver()
	th := defaultThresholds()

	first := Compute(healthyBalance(), healthyIncome(), healthyCashFlow(), "FY2024", res, th)
	second := Compute(healthyBalance(), healthyIncome(), healthyCashFlow(), "FY2024", res, th)

	if !reflect.DeepEqual(first.Metrics, second.Metrics) {
		t.Error("metric maps differ across identical invocations")
	}
	if !reflect.DeepEqual(first.Alerts, second.Alerts) {
		t.Error("alerts differ across identical invocations")
	}
}

// --- alerts ---

func TestAlertNegativeMargin(t *testing.T) {
	income := healthyIncome()
	income.Rows[5].Cells[0] = models.Num(-50) // net income row

	res := resolve.NewDefaultResolver()
	snap := Compute(healthyBalance(), income, healthyCashFlow(), "FY2024", res, defaultThresholds())

	wantAlert(t, snap.Alerts, "Net margin below 0.0% (negative)")

	// Negative ROE must not trip the weak-return alert.
	for _, a := range snap.Alerts {
		if a == "ROE < 5.0%" {
			t.Errorf("negative ROE should not fire the low-ROE alert")
		}
	}
}

func TestAlertHighLeverage(t *testing.T) {
	balance := healthyBalance()
	balance.Rows[4].Cells[0] = models.Num(15) // equity row: D/E = 60/15 = 4.0

	res := resolve.NewDefaultResolver()
	snap := Compute(balance, healthyIncome(), healthyCashFlow(), "FY2024", res, defaultThresholds())

	wantAlert(t, snap.Alerts, "Debt-to-Equity above 3.0 (high leverage)")
}

func TestAlertWeakReturns(t *testing.T) {
	income := healthyIncome()
	income.Rows[5].Cells[0] = models.Num(2) // ROE 2.5%, ROA 1.0%

	res := resolve.NewDefaultResolver()
	snap := Compute(healthyBalance(), income, healthyCashFlow(), "FY2024", res, defaultThresholds())

	wantAlert(t, snap.Alerts, "ROE < 5.0%")
	wantAlert(t, snap.Alerts, "ROA < 2.0%")
}

func TestAlertHeavyNetDebtAndThinCoverage(t *testing.T) {
	balance := healthyBalance()
	balance.Rows[6].Cells[0] = models.Num(450) // long-term debt
	income := healthyIncome()
	income.Rows[3].Cells[0] = models.Num(-40) // interest expense: coverage = (40+40+10)/40 = 2.25
	income.Rows[5].Cells[0] = models.Num(10)  // net income: coverage = (10+40+10)/40 = 1.5

	res := resolve.NewDefaultResolver()
	snap := Compute(balance, income, healthyCashFlow(), "FY2024", res, defaultThresholds())

	// Net debt = 450 + 8 - 30 = 428; EBITDA = 100; ratio 4.28.
	wantAlert(t, snap.Alerts, "Net Debt/EBITDA above 3.5 (heavy leverage)")
	wantAlert(t, snap.Alerts, "Interest coverage below 2.0 (potential default risk)")
}

func TestAlertsSkippedWhenInputsMissing(t *testing.T) {
	income := healthyIncome()
	income.Rows[5].Cells[0] = models.Num(-50)

	res := resolve.NewDefaultResolver()
	snap := Compute(nil, income, nil, "FY2024", res, defaultThresholds())

	// Margin alert still fires off the income statement alone.
	wantAlert(t, snap.Alerts, "Net margin below 0.0% (negative)")

	// Leverage metrics are absent without a balance sheet, so the check is
	// skipped rather than fired.
	for _, a := range snap.Alerts {
		if a == "Debt-to-Equity above 3.0 (high leverage)" {
			t.Error("leverage alert fired without a balance sheet")
		}
	}
}

func TestEvaluateAlertsFixedOrder(t *testing.T) {
	m := map[string]float64{
		MetricNetMargin:        -5,
		MetricDebtToEquity:     4,
		MetricROE:              3,
		MetricROA:              1,
		MetricNetDebt:          100,
		MetricNetDebtEBITDA:    4,
		MetricInterestCoverage: 1,
	}

	got := EvaluateAlerts(m, defaultThresholds())
	want := []string{
		"Net margin below 0.0% (negative)",
		"Debt-to-Equity above 3.0 (high leverage)",
		"ROE < 5.0%",
		"ROA < 2.0%",
		"Net Debt/EBITDA above 3.5 (heavy leverage)",
		"Interest coverage below 2.0 (potential default risk)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("alerts:\n got %v\nwant %v", got, want)
	}
}

func TestEvaluateAlertsEmptyMetrics(t *testing.T) {
	got := EvaluateAlerts(map[string]float64{}, defaultThresholds())
	if len(got) != 0 {
		t.Errorf("no metrics should mean no alerts, got %v", got)
	}
}

func TestEvaluateAlertsNetDebtRequiresPositiveNetDebt(t *testing.T) {
	m := map[string]float64{
		MetricNetDebt:       -20, // net cash position
		MetricNetDebtEBITDA: -4,
	}
	got := EvaluateAlerts(m, defaultThresholds())
	if len(got) != 0 {
		t.Errorf("net cash position should not alert, got %v", got)
	}
}

// --- helpers ---

func wantAlert(t *testing.T, alerts []string, want string) {
	t.Helper()
	for _, a := range alerts {
		if a == want {
			return
		}
	}
	t.Errorf("alert %q not found in %v", want, alerts)
}
