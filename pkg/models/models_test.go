package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// ── Statement Table Tests ──

func sampleIncomeTable() *StatementTable {
	t := &StatementTable{
		Ticker:  "AAPL",
		Type:    StatementIncome,
		Periods: []string{"FY2024", "FY2023"},
	}
	t.AddRow("Total net sales", Num(391035), Num(383285))
	t.AddRow("Cost of sales", Num(-210352), Num(-214137))
	t.AddRow("Net income", Num(93736), Num(96995))
	return t
}

func TestStatementTableValidate(t *testing.T) {
	tbl := sampleIncomeTable()
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate() error on well-formed table: %v", err)
	}

	tbl.Rows[1].Cells = tbl.Rows[1].Cells[:1]
	err := tbl.Validate()
	if err == nil {
		t.Fatal("Validate() should fail on a ragged row")
	}
	var shape *ShapeError
	if !errors.As(err, &shape) {
		t.Fatalf("error type: got %T, want *ShapeError", err)
	}
	if shape.Label != "Cost of sales" {
		t.Errorf("ShapeError.Label: got %q, want %q", shape.Label, "Cost of sales")
	}
	if shape.Got != 1 || shape.Want != 2 {
		t.Errorf("ShapeError counts: got %d/%d, want 1/2", shape.Got, shape.Want)
	}
}

func TestStatementTableAddRowPadding(t *testing.T) {
	tbl := &StatementTable{Periods: []string{"FY2024", "FY2023", "FY2022"}}
	tbl.AddRow("Inventories", Num(6331))
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate() after padded AddRow: %v", err)
	}
	if tbl.Rows[0].Cells[0].Valid != true {
		t.Error("first cell should be valid")
	}
	if tbl.Rows[0].Cells[2].Valid {
		t.Error("padded cell should be invalid")
	}
}

func TestStatementTablePeriodIndex(t *testing.T) {
	tbl := sampleIncomeTable()
	if got := tbl.PeriodIndex("FY2023"); got != 1 {
		t.Errorf("PeriodIndex(FY2023): got %d, want 1", got)
	}
	if got := tbl.PeriodIndex("FY2019"); got != -1 {
		t.Errorf("PeriodIndex(FY2019): got %d, want -1", got)
	}
}

func TestStatementTableCellBounds(t *testing.T) {
	tbl := sampleIncomeTable()
	if _, ok := tbl.Cell(99, 0); ok {
		t.Error("Cell out of row bounds should report ok=false")
	}
	if _, ok := tbl.Cell(0, 99); ok {
		t.Error("Cell out of column bounds should report ok=false")
	}
	c, ok := tbl.Cell(2, 0)
	if !ok || c.Value != 93736 {
		t.Errorf("Cell(2,0): got %.0f ok=%v, want 93736 ok=true", c.Value, ok)
	}
}

func TestStatementTableJSONRoundtrip(t *testing.T) {
	tbl := sampleIncomeTable()
	data, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("json.Marshal(StatementTable) error: %v", err)
	}
	var decoded StatementTable
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal(StatementTable) error: %v", err)
	}
	if decoded.Ticker != "AAPL" {
		t.Errorf("Ticker: got %q, want %q", decoded.Ticker, "AAPL")
	}
	if len(decoded.Rows) != 3 {
		t.Errorf("Rows: got %d, want 3", len(decoded.Rows))
	}
	if decoded.Rows[1].Cells[0].Value != -210352 {
		t.Errorf("Cost of sales cell: got %.0f, want -210352", decoded.Rows[1].Cells[0].Value)
	}
}

// ── Filing Tests ──

func TestFilingStatementsLatestPeriod(t *testing.T) {
	fs := &FilingStatements{
		Meta:   FilingMetadata{Ticker: "AAPL", FormType: FormAnnual},
		Income: sampleIncomeTable(),
	}
	if got := fs.LatestPeriod(); got != "FY2024" {
		t.Errorf("LatestPeriod: got %q, want %q", got, "FY2024")
	}

	empty := &FilingStatements{}
	if got := empty.LatestPeriod(); got != "" {
		t.Errorf("LatestPeriod on empty filing: got %q, want empty", got)
	}
}

func TestFilingSnapshotMetricAbsence(t *testing.T) {
	snap := &FilingSnapshot{
		Period:  "FY2024",
		Metrics: map[string]float64{"Revenue": 391035, "Net Margin %": 23.97},
	}
	if v, ok := snap.Metric("Revenue"); !ok || v != 391035 {
		t.Errorf("Metric(Revenue): got %.0f ok=%v, want 391035 ok=true", v, ok)
	}
	if _, ok := snap.Metric("ROE %"); ok {
		t.Error("Metric(ROE %) should be absent, not zero")
	}
}

// ── Report Tests ──

func TestTickerReportAlertsOrder(t *testing.T) {
	r := &TickerReport{
		Ticker:         "AAPL",
		Annual:         &FilingSnapshot{Alerts: []string{"a1"}},
		Quarterly:      &FilingSnapshot{Alerts: []string{"q1", "q2"}},
		WorkingCapital: &WorkingCapital{Alerts: []string{"w1"}},
	}
	got := r.Alerts()
	want := []string{"a1", "q1", "q2", "w1"}
	if len(got) != len(want) {
		t.Fatalf("Alerts: got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Alerts[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTickerReportOptionalSectionsOmitted(t *testing.T) {
	r := &TickerReport{Ticker: "MSFT", GeneratedAt: time.Now()}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal(TickerReport) error: %v", err)
	}
	var m map[string]any
	json.Unmarshal(data, &m)
	for _, key := range []string{"annual", "quarterly", "annual_trend", "working_capital"} {
		if _, present := m[key]; present {
			t.Errorf("empty section %q should be omitted from JSON", key)
		}
	}
}

func TestTrendBundleCAGROmittedWhenNil(t *testing.T) {
	tb := &TrendBundle{RevenueForecast: 120.5}
	data, _ := json.Marshal(tb)
	var m map[string]any
	json.Unmarshal(data, &m)
	if _, present := m["revenue_cagr"]; present {
		t.Error("nil RevenueCAGR should be omitted, not serialized as 0")
	}
	if m["revenue_forecast"] != 120.5 {
		t.Errorf("revenue_forecast: got %v, want 120.5", m["revenue_forecast"])
	}
}

func TestBatchReportInOrder(t *testing.T) {
	b := &BatchReport{
		Main:  "AAPL",
		Order: []string{"AAPL", "MSFT", "GOOG"},
		Reports: map[string]*TickerReport{
			"GOOG": {Ticker: "GOOG"},
			"AAPL": {Ticker: "AAPL"},
		},
		Errors: map[string]string{"MSFT": "no filings"},
	}
	got := b.InOrder()
	if len(got) != 2 {
		t.Fatalf("InOrder: got %d reports, want 2", len(got))
	}
	if got[0].Ticker != "AAPL" || got[1].Ticker != "GOOG" {
		t.Errorf("InOrder sequence: got [%s %s], want [AAPL GOOG]", got[0].Ticker, got[1].Ticker)
	}
}
