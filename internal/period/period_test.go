package period

import (
	"testing"
	"time"
)

func TestParseFiscalYearForms(t *testing.T) {
	for _, label := range []string{"2021", "FY2021", "FY 2021", "fy2021", "Fiscal year ended 2021"} {
		k := Parse(label)
		if !k.Parsed {
			t.Errorf("Parse(%q): should parse", label)
			continue
		}
		if k.Year != 2021 {
			t.Errorf("Parse(%q): Year got %d, want 2021", label, k.Year)
		}
		if k.Quarter != 0 {
			t.Errorf("Parse(%q): Quarter got %d, want 0 (annual)", label, k.Quarter)
		}
		if k.HasDate {
			t.Errorf("Parse(%q): should carry no exact date", label)
		}
	}
}

func TestParseQuarterForms(t *testing.T) {
	for _, label := range []string{"Q3 2020", "2020 Q3", "Q3-2020", "2020Q3", "Q3 FY2020"} {
		k := Parse(label)
		if !k.Parsed {
			t.Errorf("Parse(%q): should parse", label)
			continue
		}
		if k.Year != 2020 || k.Quarter != 3 {
			t.Errorf("Parse(%q): got Y%d Q%d, want Y2020 Q3", label, k.Year, k.Quarter)
		}
	}
}

func TestParseDateForms(t *testing.T) {
	k := Parse("2021-03-31")
	if !k.Parsed || !k.HasDate {
		t.Fatalf("Parse(2021-03-31): Parsed=%v HasDate=%v, want both true", k.Parsed, k.HasDate)
	}
	if k.Year != 2021 || k.Quarter != 1 {
		t.Errorf("Parse(2021-03-31): got Y%d Q%d, want Y2021 Q1", k.Year, k.Quarter)
	}
	want := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	if !k.Date.Equal(want) {
		t.Errorf("Parse(2021-03-31): Date got %v, want %v", k.Date, want)
	}

	slash := Parse("2021/03/31")
	if !slash.Equal(k) {
		t.Error("slash and dash date forms of the same day should compare equal")
	}

	ym := Parse("2021-03")
	if !ym.Parsed || ym.Quarter != 1 {
		t.Errorf("Parse(2021-03): got Parsed=%v Q%d, want parsed Q1", ym.Parsed, ym.Quarter)
	}
}

func TestParseRescuesEmbeddedYear(t *testing.T) {
	k := Parse("Twelve Months Ended December 31, 2019")
	if !k.Parsed || k.Year != 2019 || k.Quarter != 0 {
		t.Errorf("rescue parse: got Parsed=%v Y%d Q%d, want parsed Y2019 Q0", k.Parsed, k.Year, k.Quarter)
	}
}

func TestParseUnparsableSortsLast(t *testing.T) {
	bad := Parse("Restated")
	if bad.Parsed {
		t.Fatal("Parse(Restated): should not parse")
	}
	good := Parse("FY1995")
	if bad.Compare(good) <= 0 {
		t.Error("Compare: unparsable vs parsed should be positive")
	}
	if bad.Before(good) {
		t.Error("unparsable label should sort after any parsed key")
	}
	if !good.Before(bad) {
		t.Error("parsed key should sort before an unparsable one")
	}
}

func TestSameFiscalPeriodEqualAcrossSurfaceForms(t *testing.T) {
	pairs := [][2]string{
		{"Q1 2021", "2021 Q1"},
		{"FY2021", "2021"},
		{"FY 2021", "FY2021"},
		{"2021-03-31", "2021/03/31"},
	}
	for _, p := range pairs {
		a, b := Parse(p[0]), Parse(p[1])
		if !a.Equal(b) {
			t.Errorf("Parse(%q) and Parse(%q) should be equal, got %+v vs %+v", p[0], p[1], a, b)
		}
	}
}

func TestAnnualOrdersBeforeQuartersOfSameYear(t *testing.T) {
	annual := Parse("FY2021")
	q1 := Parse("Q1 2021")
	q4 := Parse("Q4 2021")
	if !annual.Before(q1) {
		t.Error("annual key should order before Q1 of the same year")
	}
	if !q1.Before(q4) {
		t.Error("Q1 should order before Q4")
	}
	if !q4.Before(Parse("FY2022")) {
		t.Error("Q4 2021 should order before FY2022")
	}
}

func TestSortLabelsChronological(t *testing.T) {
	labels := []string{"Q2 2021", "FY2019", "garbage", "2020-06-30", "FY2020", "Q1 2021"}
	got := SortLabels(labels)
	want := []string{"FY2019", "FY2020", "2020-06-30", "Q1 2021", "Q2 2021", "garbage"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SortLabels[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSortStableForUnparsableLabels(t *testing.T) {
	labels := []string{"zzz", "aaa", "FY2021", "mmm"}
	first := SortLabels(labels)
	second := SortLabels(labels)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("SortLabels not stable across calls: %v vs %v", first, second)
		}
	}
	if first[0] != "FY2021" {
		t.Errorf("parsed label should sort first, got %q", first[0])
	}
	if first[1] != "aaa" || first[2] != "mmm" || first[3] != "zzz" {
		t.Errorf("unparsable labels should order by raw label, got %v", first[1:])
	}
}

func TestYearSpan(t *testing.T) {
	if got := YearSpan(Parse("FY2018"), Parse("FY2021")); got != 3 {
		t.Errorf("YearSpan(2018, 2021): got %d, want 3", got)
	}
	if got := YearSpan(Parse("Q1 2021"), Parse("Q4 2021")); got != 0 {
		t.Errorf("YearSpan same year: got %d, want 0", got)
	}
}

func TestEndDate(t *testing.T) {
	cases := map[string]time.Time{
		"FY2021":     time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
		"Q1 2021":    time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC),
		"Q2 2021":    time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC),
		"Q4 2020":    time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
		"2021-03-15": time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	for label, want := range cases {
		if got := Parse(label).EndDate(); !got.Equal(want) {
			t.Errorf("Parse(%q).EndDate(): got %v, want %v", label, got, want)
		}
	}
	if got := Parse("garbage").EndDate(); !got.IsZero() {
		t.Errorf("unparsable label EndDate: got %v, want zero time", got)
	}
}

func TestKeyString(t *testing.T) {
	cases := map[string]string{
		"fy2021":     "FY2021",
		"2021 Q3":    "Q3 2021",
		"2021-03-31": "2021-03-31",
		"who knows":  "who knows",
	}
	for label, want := range cases {
		if got := Parse(label).String(); got != want {
			t.Errorf("Parse(%q).String(): got %q, want %q", label, got, want)
		}
	}
}
