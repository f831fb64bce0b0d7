package forecast

import (
	"math"
	"strconv"
	"testing"

	"github.com/seenimoa/filinglens/pkg/models"
)

func annualSeries(startYear int, values ...float64) []models.SeriesPoint {
	out := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = models.SeriesPoint{Period: "FY" + strconv.Itoa(startYear+i), Value: v}
	}
	return out
}

// ── ARIMA strategy ──

func TestARIMAInsufficientData(t *testing.T) {
	s := NewARIMA()
	for _, series := range [][]models.SeriesPoint{
		nil,
		annualSeries(2021, 100),
		annualSeries(2020, 100, 110),
		annualSeries(2019, 100, 110, 120),
	} {
		if got := s.Forecast(series, false); got != 0 {
			t.Errorf("%d points: got %v, want exactly 0", len(series), got)
		}
	}
}

func TestARIMANeverNegative(t *testing.T) {
	s := NewARIMA()
	got := s.Forecast(annualSeries(2019, 100, 75, 50, 25), false)
	if got < 0 {
		t.Errorf("downward trend produced negative forecast %v", got)
	}
}

func TestARIMARisingSeries(t *testing.T) {
	s := NewARIMA()
	got := s.Forecast(annualSeries(2018, 10, 20, 30, 40, 50, 60), false)
	if got <= 0 || got > 200 {
		t.Errorf("rising series: got %v, want a positive value near the data scale", got)
	}
}

func TestARIMADeterministic(t *testing.T) {
	s := NewARIMA()
	series := annualSeries(2017, 100, 112, 125, 131, 150, 158, 171)
	first := s.Forecast(series, false)
	for i := 0; i < 3; i++ {
		if got := s.Forecast(series, false); got != first {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

func TestARIMAInputOrderIrrelevant(t *testing.T) {
	s := NewARIMA()
	asc := annualSeries(2018, 10, 20, 30, 40, 50, 60)
	shuffled := []models.SeriesPoint{asc[3], asc[0], asc[5], asc[1], asc[4], asc[2]}
	if a, b := s.Forecast(asc, false), s.Forecast(shuffled, false); a != b {
		t.Errorf("ascending %v vs shuffled %v", a, b)
	}
}

func TestARIMAQuarterly(t *testing.T) {
	s := NewARIMA()
	series := []models.SeriesPoint{}
	quarters := []string{"Q1", "Q2", "Q3", "Q4"}
	v := 100.0
	for year := 2021; year <= 2023; year++ {
		for _, q := range quarters {
			series = append(series, models.SeriesPoint{Period: q + " " + strconv.Itoa(year), Value: v})
			v += 10
		}
	}
	got := s.Forecast(series, true)
	if got < 0 || got > 1000 {
		t.Errorf("quarterly series: got %v", got)
	}
}

func TestCandidateSets(t *testing.T) {
	if got := candidatesFor(4, false); len(got) != 2 || got[0].name != "ARIMA(0,1,1)" || got[1].name != "ARIMA(1,1,0)" {
		t.Errorf("short history candidates: %+v", got)
	}
	if got := candidatesFor(6, false); len(got) != 3 || got[0].name != "ARIMA(1,1,1)" {
		t.Errorf("long history candidates: %+v", got)
	}
	got := candidatesFor(6, true)
	if len(got) != 4 || !got[3].seasonal {
		t.Errorf("quarterly candidates should end with the seasonal variant: %+v", got)
	}
}

func TestDiff(t *testing.T) {
	got := diff([]float64{10, 20, 35, 55}, 1)
	want := []float64{10, 15, 20}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("diff lag 1: got %v, want %v", got, want)
		}
	}
	got = diff([]float64{10, 20, 30, 40, 55}, 4)
	if len(got) != 1 || got[0] != 45 {
		t.Errorf("diff lag 4: got %v, want [45]", got)
	}
}

// ── Average growth strategy ──

func TestAvgGrowth(t *testing.T) {
	s := NewAvgGrowth()
	// 20%, 10%, 20% growth; mean 16.67% applied to 158.4.
	got := s.Forecast(annualSeries(2019, 100, 120, 132, 158.4), false)
	want := 158.4 * (1 + 0.5/3)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestAvgGrowthShortSeries(t *testing.T) {
	s := NewAvgGrowth()
	if got := s.Forecast(nil, false); got != 0 {
		t.Errorf("empty: got %v", got)
	}
	if got := s.Forecast(annualSeries(2023, 42), false); got != 42 {
		t.Errorf("single point should return it unchanged, got %v", got)
	}
	if got := s.Forecast(annualSeries(2023, -42), false); got != 0 {
		t.Errorf("negative single point should clamp, got %v", got)
	}
}

func TestAvgGrowthSkipsNonPositivePredecessors(t *testing.T) {
	s := NewAvgGrowth()
	// No usable rate: fall back to the last value.
	if got := s.Forecast(annualSeries(2020, -100, 50), false); got != 50 {
		t.Errorf("got %v, want 50", got)
	}
}

func TestAvgGrowthClampsNegative(t *testing.T) {
	s := NewAvgGrowth()
	// Rates +100% and -150% average to -25%, applied to a negative last value.
	if got := s.Forecast(annualSeries(2020, 100, 200, -100), false); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

// ── Registry ──

func TestByName(t *testing.T) {
	for _, name := range []string{"arima", "ARIMA", "avg-growth", "Avg-Growth"} {
		if _, ok := ByName(name); !ok {
			t.Errorf("ByName(%q) should find a strategy", name)
		}
	}
	if _, ok := ByName("prophet"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestDefaultStrategy(t *testing.T) {
	if got := Default().Name(); got != "arima" {
		t.Errorf("default strategy: got %q", got)
	}
}

type flatStrategy struct{ v float64 }

func (f flatStrategy) Name() string { return "flat" }

func (f flatStrategy) Forecast([]models.SeriesPoint, bool) float64 { return f.v }

func TestRegister(t *testing.T) {
	Register(flatStrategy{v: 7})
	s, ok := ByName("flat")
	if !ok {
		t.Fatal("registered strategy should resolve by name")
	}
	if got := s.Forecast(nil, false); got != 7 {
		t.Errorf("registered strategy forecast: got %v, want 7", got)
	}

	// The newest registration of a name shadows the older one.
	Register(flatStrategy{v: 9})
	s, _ = ByName("FLAT")
	if got := s.Forecast(nil, false); got != 9 {
		t.Errorf("shadowing registration: got %v, want 9", got)
	}

	all := All()
	if len(all) < 3 {
		t.Fatalf("All() should include registered and built-in strategies, got %d", len(all))
	}
	if all[len(all)-2].Name() != "arima" || all[len(all)-1].Name() != "avg-growth" {
		t.Errorf("built-ins should close the list, got %q, %q",
			all[len(all)-2].Name(), all[len(all)-1].Name())
	}
}
