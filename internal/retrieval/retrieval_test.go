package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/seenimoa/filinglens/pkg/models"
)

// --- fixtures ---

type stubSource struct{ name string }

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Statements(context.Context, string, models.FormType) (*models.FilingStatements, error) {
	return nil, ErrNoFilings
}

func (s *stubSource) StatementsHistory(context.Context, string, models.FormType, int) ([]*models.FilingStatements, error) {
	return nil, ErrNoFilings
}

func filing(ticker string, form models.FormType, date, accession, period string, revenue float64) *models.FilingStatements {
	income := &models.StatementTable{Ticker: ticker, Type: models.StatementIncome, Periods: []string{period}}
	income.AddRow("Total revenues", models.Num(revenue))
	return &models.FilingStatements{
		Meta: models.FilingMetadata{
			Ticker:          ticker,
			CompanyName:     ticker + " Inc.",
			FormType:        form,
			FilingDate:      date,
			AccessionNumber: accession,
		},
		Income: income,
	}
}

func writeFixture(t *testing.T, dir, name string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal fixture %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
}

// ── Registry ──

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubSource{name: "edgar"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&stubSource{name: "fixture"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s, err := r.Get("fixture")
	if err != nil {
		t.Fatalf("Get(fixture): %v", err)
	}
	if s.Name() != "fixture" {
		t.Errorf("Get(fixture).Name() = %q", s.Name())
	}

	_, err = r.Get("nope")
	var notFound *ErrSourceNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("Get(nope) error = %v, want ErrSourceNotFound", err)
	}
	if notFound.Name != "nope" {
		t.Errorf("ErrSourceNotFound.Name = %q", notFound.Name)
	}
}

func TestRegistryDefaultIsFirstRegistered(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&stubSource{name: "edgar"})
	_ = r.Register(&stubSource{name: "fixture"})

	def, err := r.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if def.Name() != "edgar" {
		t.Errorf("default = %q, want edgar", def.Name())
	}

	if err := r.SetDefault("fixture"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	def, _ = r.Default()
	if def.Name() != "fixture" {
		t.Errorf("default after SetDefault = %q, want fixture", def.Name())
	}

	if err := r.SetDefault("nope"); err == nil {
		t.Error("SetDefault(nope) should fail")
	}
}

func TestRegistryEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubSource{name: ""}); err == nil {
		t.Error("Register with empty name should fail")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&stubSource{name: "fixture"})
	_ = r.Register(&stubSource{name: "edgar"})

	names := r.Names()
	want := []string{"edgar", "fixture"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

// ── Fixture source ──

func TestFixtureHistoryNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "aapl_2022.json", filing("AAPL", models.FormAnnual, "2022-10-28", "0000320193-22-000108", "2022-09-24", 394328e6))
	writeFixture(t, dir, "aapl_2024.json", filing("AAPL", models.FormAnnual, "2024-11-01", "0000320193-24-000123", "2024-09-28", 391035e6))
	writeFixture(t, dir, "aapl_2023.json", filing("AAPL", models.FormAnnual, "2023-11-03", "0000320193-23-000106", "2023-09-30", 383285e6))

	f := NewFixture(dir)
	history, err := f.StatementsHistory(context.Background(), "AAPL", models.FormAnnual, 10)
	if err != nil {
		t.Fatalf("StatementsHistory: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d filings, want 3", len(history))
	}

	wantDates := []string{"2024-11-01", "2023-11-03", "2022-10-28"}
	for i, want := range wantDates {
		if got := history[i].Meta.FilingDate; got != want {
			t.Errorf("history[%d].FilingDate = %q, want %q", i, got, want)
		}
	}
}

func TestFixtureHistoryTruncatesToN(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.json", filing("AAPL", models.FormAnnual, "2024-11-01", "acc-24", "2024-09-28", 1))
	writeFixture(t, dir, "b.json", filing("AAPL", models.FormAnnual, "2023-11-03", "acc-23", "2023-09-30", 2))

	f := NewFixture(dir)
	history, err := f.StatementsHistory(context.Background(), "AAPL", models.FormAnnual, 1)
	if err != nil {
		t.Fatalf("StatementsHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d filings, want 1", len(history))
	}
	if history[0].Meta.FilingDate != "2024-11-01" {
		t.Errorf("kept filing date = %q, want newest", history[0].Meta.FilingDate)
	}
}

func TestFixtureStatementsReturnsLatest(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "old.json", filing("AAPL", models.FormAnnual, "2023-11-03", "acc-23", "2023-09-30", 383285e6))
	writeFixture(t, dir, "new.json", filing("AAPL", models.FormAnnual, "2024-11-01", "acc-24", "2024-09-28", 391035e6))

	f := NewFixture(dir)
	fs, err := f.Statements(context.Background(), "AAPL", models.FormAnnual)
	if err != nil {
		t.Fatalf("Statements: %v", err)
	}
	if fs.Meta.AccessionNumber != "acc-24" {
		t.Errorf("accession = %q, want acc-24", fs.Meta.AccessionNumber)
	}
	if got := fs.LatestPeriod(); got != "2024-09-28" {
		t.Errorf("LatestPeriod() = %q, want 2024-09-28", got)
	}
}

func TestFixtureFiltersFormAndTicker(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "aapl_k.json", filing("AAPL", models.FormAnnual, "2024-11-01", "acc-k", "2024-09-28", 1))
	writeFixture(t, dir, "aapl_q.json", filing("AAPL", models.FormQuarterly, "2024-08-02", "acc-q", "2024-06-29", 2))
	writeFixture(t, dir, "msft_k.json", filing("MSFT", models.FormAnnual, "2024-07-30", "acc-m", "2024-06-30", 3))

	f := NewFixture(dir)
	history, err := f.StatementsHistory(context.Background(), "AAPL", models.FormQuarterly, 10)
	if err != nil {
		t.Fatalf("StatementsHistory: %v", err)
	}
	if len(history) != 1 || history[0].Meta.AccessionNumber != "acc-q" {
		t.Fatalf("quarterly filter returned %+v", history)
	}
}

func TestFixtureNoFilingsVsUnknownTicker(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "msft_k.json", filing("MSFT", models.FormAnnual, "2024-07-30", "acc-m", "2024-06-30", 3))

	f := NewFixture(dir)

	_, err := f.Statements(context.Background(), "MSFT", models.FormQuarterly)
	if !errors.Is(err, ErrNoFilings) {
		t.Errorf("known ticker, missing form: err = %v, want ErrNoFilings", err)
	}

	_, err = f.Statements(context.Background(), "AAPL", models.FormAnnual)
	if !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("unknown ticker: err = %v, want ErrTickerNotFound", err)
	}
}

func TestFixtureClassSeparatorFolding(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "brk.json", filing("BRK-B", models.FormAnnual, "2024-02-26", "acc-b", "2023-12-31", 364482e6))

	f := NewFixture(dir)
	fs, err := f.Statements(context.Background(), "BRK.B", models.FormAnnual)
	if err != nil {
		t.Fatalf("Statements(BRK.B): %v", err)
	}
	if fs.Meta.AccessionNumber != "acc-b" {
		t.Errorf("accession = %q", fs.Meta.AccessionNumber)
	}
}

func TestFixtureMalformedTableFailsFast(t *testing.T) {
	dir := t.TempDir()
	bad := filing("AAPL", models.FormAnnual, "2024-11-01", "acc-bad", "2024-09-28", 1)
	// Two period columns against a one-cell row.
	bad.Income.Periods = []string{"2024-09-28", "2023-09-30"}
	writeFixture(t, dir, "bad.json", bad)

	f := NewFixture(dir)
	_, err := f.Statements(context.Background(), "AAPL", models.FormAnnual)
	var shapeErr *models.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("err = %v, want ShapeError", err)
	}
}

func TestFixtureIgnoresNonJSON(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "aapl.json", filing("AAPL", models.FormAnnual, "2024-11-01", "acc", "2024-09-28", 1))
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFixture(dir)
	if _, err := f.Statements(context.Background(), "AAPL", models.FormAnnual); err != nil {
		t.Fatalf("Statements with stray file in dir: %v", err)
	}
}

func TestFixtureMissingDir(t *testing.T) {
	f := NewFixture(filepath.Join(t.TempDir(), "absent"))
	if _, err := f.Statements(context.Background(), "AAPL", models.FormAnnual); err == nil {
		t.Error("expected error for missing fixture dir")
	}
}
