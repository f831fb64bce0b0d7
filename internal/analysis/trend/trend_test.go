package trend

import (
	"math"
	"reflect"
	"testing"

	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/resolve"
	"github.com/seenimoa/filinglens/pkg/models"
)

func series(periods []string, values []float64) []models.SeriesPoint {
	out := make([]models.SeriesPoint, len(periods))
	for i := range periods {
		out[i] = models.SeriesPoint{Period: periods[i], Value: values[i]}
	}
	return out
}

// ── GrowthSeries ──

func TestGrowthSeriesBasic(t *testing.T) {
	got := GrowthSeries(series([]string{"FY2020", "FY2021"}, []float64{100, 150}))
	want := []models.GrowthPoint{{Period: "FY2021", Pct: 50}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("growth: got %v, want %v", got, want)
	}
}

func TestGrowthSeriesZeroPredecessorOmitted(t *testing.T) {
	got := GrowthSeries(series([]string{"FY2020", "FY2021"}, []float64{0, 50}))
	if len(got) != 0 {
		t.Errorf("zero predecessor should omit the entry, got %v", got)
	}

	// A later nonzero predecessor still yields its entry.
	got = GrowthSeries(series([]string{"FY2020", "FY2021", "FY2022"}, []float64{0, 50, 100}))
	want := []models.GrowthPoint{{Period: "FY2022", Pct: 100}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("growth: got %v, want %v", got, want)
	}
}

func TestGrowthSeriesNegativePredecessor(t *testing.T) {
	// Denominator is |prev|: a loss shrinking from -100 to -50 is +50%.
	got := GrowthSeries(series([]string{"FY2020", "FY2021"}, []float64{-100, -50}))
	want := []models.GrowthPoint{{Period: "FY2021", Pct: 50}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("growth: got %v, want %v", got, want)
	}
}

func TestGrowthSeriesTooShort(t *testing.T) {
	if got := GrowthSeries(series([]string{"FY2021"}, []float64{100})); len(got) != 0 {
		t.Errorf("single point should yield no growth, got %v", got)
	}
	if got := GrowthSeries(nil); len(got) != 0 {
		t.Errorf("empty series should yield no growth, got %v", got)
	}
}

// ── CAGR ──

func TestCAGRDoublingOverThreeYears(t *testing.T) {
	got, ok := CAGR(series([]string{"FY2018", "FY2021"}, []float64{100, 200}))
	if !ok {
		t.Fatal("CAGR should be defined")
	}
	want := (math.Pow(2, 1.0/3.0) - 1) * 100 // ≈ 25.99
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("CAGR: got %.4f, want %.4f", got, want)
	}
}

func TestCAGRUsesEndpointsOnly(t *testing.T) {
	got, ok := CAGR(series([]string{"FY2018", "FY2019", "FY2021"}, []float64{100, 500, 200}))
	if !ok {
		t.Fatal("CAGR should be defined")
	}
	want := (math.Pow(2, 1.0/3.0) - 1) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("CAGR with interior points: got %.4f, want %.4f", got, want)
	}
}

func TestCAGRUndefined(t *testing.T) {
	cases := []struct {
		name    string
		periods []string
		values  []float64
	}{
		{"single point", []string{"FY2021"}, []float64{100}},
		{"zero start", []string{"FY2018", "FY2021"}, []float64{0, 200}},
		{"negative start", []string{"FY2018", "FY2021"}, []float64{-100, 200}},
		{"negative end", []string{"FY2018", "FY2021"}, []float64{100, -200}},
		{"zero year span", []string{"Q1 2021", "Q3 2021"}, []float64{100, 200}},
	}
	for _, tc := range cases {
		if v, ok := CAGR(series(tc.periods, tc.values)); ok {
			t.Errorf("%s: CAGR should be undefined, got %.4f", tc.name, v)
		}
	}
}

// ── NegativeStreak / Spikes ──

func TestNegativeStreak(t *testing.T) {
	tests := []struct {
		values []float64
		want   int
	}{
		{[]float64{-10, -5, -1, -3}, 4},
		{[]float64{10, -5, -1, -3}, 3},
		{[]float64{-10, 5, -1, -3}, 2},
		{[]float64{-10, -5, -1, 3}, 0},
		{[]float64{0, -1}, 1}, // zero is not negative
		{nil, 0},
	}
	for _, tc := range tests {
		periods := make([]string, len(tc.values))
		for i := range periods {
			periods[i] = "Q1 2024"
		}
		if got := NegativeStreak(series(periods, tc.values)); got != tc.want {
			t.Errorf("NegativeStreak(%v): got %d, want %d", tc.values, got, tc.want)
		}
	}
}

func TestSpikes(t *testing.T) {
	s := series([]string{"Q1 2024", "Q2 2024", "Q3 2024", "Q4 2024"}, []float64{100, 140, 150, 80})
	got := Spikes(s, 30.0)
	// Q2: +40% spike; Q3: +7.1% no; Q4: -46.7% drop is not a spike.
	if len(got) != 1 {
		t.Fatalf("spikes: got %v, want exactly one", got)
	}
	if got[0].Period != "Q2 2024" || math.Abs(got[0].Pct-40) > 1e-9 {
		t.Errorf("spike: got %+v, want Q2 2024 +40%%", got[0])
	}
}

// ── BuildSeries ──

func incomeTable(periods []string, revenue, netIncome []models.Cell) *models.StatementTable {
	t := &models.StatementTable{Ticker: "ACME", Type: models.StatementIncome, Periods: periods}
	t.AddRow("Total net sales", revenue...)
	t.AddRow("Net income", netIncome...)
	return t
}

func TestBuildSeriesSortsAndDedupes(t *testing.T) {
	// Newest-first columns, overlapping restated period across filings.
	older := incomeTable([]string{"FY2023", "FY2022"},
		[]models.Cell{models.Num(200), models.Num(100)},
		[]models.Cell{models.Num(20), models.Num(10)})
	newer := incomeTable([]string{"FY2024", "FY2023"},
		[]models.Cell{models.Num(300), models.Num(999)}, // restated FY2023 must lose
		[]models.Cell{models.Num(30), models.Num(99)})

	res := resolve.NewDefaultResolver()
	got := BuildSeries([]*models.StatementTable{older, newer}, resolve.Revenue, res)

	want := series([]string{"FY2022", "FY2023", "FY2024"}, []float64{100, 200, 300})
	if !reflect.DeepEqual(got, want) {
		t.Errorf("series: got %v, want %v", got, want)
	}
}

func TestBuildSeriesSkipsUnresolvablePeriods(t *testing.T) {
	table := &models.StatementTable{Ticker: "ACME", Type: models.StatementIncome, Periods: []string{"FY2024", "FY2023"}}
	table.AddRow("Total net sales", models.Num(300)) // FY2023 cell padded invalid

	res := resolve.NewDefaultResolver()
	got := BuildSeries([]*models.StatementTable{table}, resolve.Revenue, res)

	want := series([]string{"FY2024"}, []float64{300})
	if !reflect.DeepEqual(got, want) {
		t.Errorf("series: got %v, want %v", got, want)
	}
}

// ── Bundle ──

func TestBundle(t *testing.T) {
	table := incomeTable([]string{"FY2024", "FY2023", "FY2022"},
		[]models.Cell{models.Num(300), models.Num(200), models.Num(100)},
		[]models.Cell{models.Num(30), models.Num(20), models.Num(10)})

	res := resolve.NewDefaultResolver()
	b := Bundle([]*models.StatementTable{table}, res)

	if len(b.Revenue) != 3 || b.Revenue[0].Value != 100 || b.Revenue[2].Value != 300 {
		t.Errorf("revenue series: got %v", b.Revenue)
	}
	if len(b.RevenueGrowth) != 2 || b.RevenueGrowth[0].Pct != 100 || b.RevenueGrowth[1].Pct != 50 {
		t.Errorf("revenue growth: got %v", b.RevenueGrowth)
	}
	if b.RevenueCAGR == nil {
		t.Fatal("revenue CAGR should be defined")
	}
	want := (math.Pow(3, 1.0/2.0) - 1) * 100 // tripled over two years
	if math.Abs(*b.RevenueCAGR-want) > 1e-9 {
		t.Errorf("revenue CAGR: got %.4f, want %.4f", *b.RevenueCAGR, want)
	}
	if b.NetIncomeCAGR == nil {
		t.Error("net income CAGR should be defined")
	}
}

func TestBundleCAGRNilOnShortSpan(t *testing.T) {
	table := incomeTable([]string{"Q2 2024", "Q1 2024"},
		[]models.Cell{models.Num(120), models.Num(100)},
		[]models.Cell{models.Num(12), models.Num(10)})

	res := resolve.NewDefaultResolver()
	b := Bundle([]*models.StatementTable{table}, res)

	if b.RevenueCAGR != nil {
		t.Errorf("same-year quarters should leave CAGR undefined, got %.4f", *b.RevenueCAGR)
	}
	if len(b.RevenueGrowth) != 1 {
		t.Errorf("QoQ growth should still compute, got %v", b.RevenueGrowth)
	}
}

// ── Working capital ──

func TestBuildWorkingCapitalAlerts(t *testing.T) {
	balance := &models.StatementTable{Ticker: "ACME", Type: models.StatementBalance, Periods: []string{"Q2 2024", "Q1 2024"}}
	balance.AddRow("Inventories", models.Num(140), models.Num(100))
	balance.AddRow("Accounts receivable, net", models.Num(100), models.Num(100))

	cashflow := &models.StatementTable{Ticker: "ACME", Type: models.StatementCashFlow, Periods: []string{"Q2 2024", "Q1 2024"}}
	cashflow.AddRow("Net cash provided by operating activities", models.Num(-5), models.Num(-10))
	cashflow.AddRow("Capital expenditures", models.Num(0), models.Num(0))

	res := resolve.NewDefaultResolver()
	wc := BuildWorkingCapital([]*models.StatementTable{balance}, []*models.StatementTable{cashflow}, res, config.DefaultAlertThresholds())

	if len(wc.Inventory) != 2 || wc.Inventory[0].Value != 100 {
		t.Errorf("inventory series: got %v", wc.Inventory)
	}
	if len(wc.FreeCashFlow) != 2 || wc.FreeCashFlow[0].Value != -10 || wc.FreeCashFlow[1].Value != -5 {
		t.Errorf("FCF series: got %v", wc.FreeCashFlow)
	}

	want := []string{
		"2 consecutive quarters of negative FCF (through Q2 2024)",
		"Inventory spiked +40.00% from previous quarter to Q2 2024",
	}
	if !reflect.DeepEqual(wc.Alerts, want) {
		t.Errorf("alerts:\n got %v\nwant %v", wc.Alerts, want)
	}
}

func TestQuarterlyAlertsStreakThreshold(t *testing.T) {
	th := config.DefaultAlertThresholds()
	th.FCFStreak = 3

	quarters := []string{"Q1 2024", "Q2 2024", "Q3 2024", "Q4 2024"}

	wc := models.WorkingCapital{FreeCashFlow: series(quarters, []float64{-10, -5, -1, -3})}
	alerts := QuarterlyAlerts(wc, th)
	if len(alerts) != 1 {
		t.Fatalf("four negative quarters at streak 3: got %v", alerts)
	}
	if alerts[0] != "4 consecutive quarters of negative FCF (through Q4 2024)" {
		t.Errorf("alert: got %q", alerts[0])
	}

	// One positive value inside the window breaks the streak.
	wc = models.WorkingCapital{FreeCashFlow: series(quarters, []float64{-10, -5, 1, -3})}
	if alerts := QuarterlyAlerts(wc, th); len(alerts) != 0 {
		t.Errorf("broken streak should not alert, got %v", alerts)
	}
}

func TestWorkingCapitalOmitsQuartersWithoutCapex(t *testing.T) {
	cashflow := &models.StatementTable{Ticker: "ACME", Type: models.StatementCashFlow, Periods: []string{"Q2 2024", "Q1 2024"}}
	cashflow.AddRow("Net cash provided by operating activities", models.Num(50), models.Num(40))
	cashflow.AddRow("Capital expenditures", models.Num(-30)) // Q1 cell padded invalid, no investing fallback

	res := resolve.NewDefaultResolver()
	wc := BuildWorkingCapital(nil, []*models.StatementTable{cashflow}, res, config.DefaultAlertThresholds())

	want := series([]string{"Q2 2024"}, []float64{20})
	if !reflect.DeepEqual(wc.FreeCashFlow, want) {
		t.Errorf("FCF series: got %v, want %v", wc.FreeCashFlow, want)
	}
}
