// Package period parses heterogeneous fiscal period labels into totally
// ordered keys.
//
// Filers label statement columns inconsistently: "2021", "FY2021", "FY 2021",
// "Q3 2020", "2020 Q3", "2021-03-31". All of these reduce to a
// (year, quarter, optional exact date) key that sorts chronologically and
// compares equal across surface forms of the same fiscal period. Labels that
// cannot be parsed are never an error; they sort after every parsed key, tied
// among themselves by raw label, so ordering stays stable across calls.
package period

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Key is a comparable fiscal period. Quarter is 1..4 for quarterly periods
// and 0 for annual ones. Date is set only when the label carried calendar
// precision (a full or year-month date); for such labels Quarter is derived
// from the month so dated keys interleave correctly with quarter labels.
type Key struct {
	Year    int
	Quarter int
	Date    time.Time
	HasDate bool
	Parsed  bool
	Label   string
}

var (
	quarterFirstRe = regexp.MustCompile(`^Q([1-4])[\s\-]?(\d{4})$`)
	yearFirstRe    = regexp.MustCompile(`^(\d{4})[\s\-]?Q([1-4])$`)
	anyQuarterRe   = regexp.MustCompile(`\bQ([1-4])\b`)
	anyYearRe      = regexp.MustCompile(`\b(?:FY)?(19\d{2}|20\d{2})\b`)
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006-01", "2006/01"}

// Parse converts a textual period label into a Key. It never fails: labels
// outside the catalogue come back with Parsed=false and sort last.
func Parse(label string) Key {
	k := Key{Label: label}
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return k
	}

	// Fiscal-year prefix: "FY2021", "FY 2021".
	if rest, ok := strings.CutPrefix(s, "FY"); ok {
		if year, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && plausibleYear(year) {
			k.Year, k.Parsed = year, true
			return k
		}
	}

	// Strict quarter forms: "Q1 2021", "Q1-2021", "2021 Q1", "2021Q1".
	if m := quarterFirstRe.FindStringSubmatch(s); m != nil {
		return quarterKey(label, m[2], m[1])
	}
	if m := yearFirstRe.FindStringSubmatch(s); m != nil {
		return quarterKey(label, m[1], m[2])
	}

	// Calendar forms: exact dates and year-months.
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			k.Year = d.Year()
			k.Quarter = (int(d.Month())-1)/3 + 1
			k.Date, k.HasDate = d, true
			k.Parsed = true
			return k
		}
	}

	// Bare four-digit year.
	if year, err := strconv.Atoi(s); err == nil && plausibleYear(year) {
		k.Year, k.Parsed = year, true
		return k
	}

	// Rescue: a recognizable year buried in prose ("Year ended December 31,
	// 2021"), optionally with a quarter marker ("Q3 FY2020").
	if m := anyYearRe.FindStringSubmatch(s); m != nil {
		k.Year, _ = strconv.Atoi(m[1])
		k.Parsed = true
		if qm := anyQuarterRe.FindStringSubmatch(s); qm != nil {
			k.Quarter, _ = strconv.Atoi(qm[1])
		}
		return k
	}

	return k
}

func quarterKey(label, year, quarter string) Key {
	y, _ := strconv.Atoi(year)
	q, _ := strconv.Atoi(quarter)
	return Key{Year: y, Quarter: q, Parsed: true, Label: label}
}

func plausibleYear(y int) bool { return y >= 1900 && y <= 2199 }

// Compare orders two keys chronologically: parsed before unparsed, then year,
// then quarter (annual keys order before the year's quarters), then exact
// date when both carry one. Unparsed keys tie-break on raw label so the
// fallback ordering is deterministic.
func (k Key) Compare(other Key) int {
	if k.Parsed != other.Parsed {
		if k.Parsed {
			return -1
		}
		return 1
	}
	if !k.Parsed {
		return strings.Compare(k.Label, other.Label)
	}
	if k.Year != other.Year {
		return k.Year - other.Year
	}
	if k.Quarter != other.Quarter {
		return k.Quarter - other.Quarter
	}
	switch {
	case k.HasDate && other.HasDate:
		if k.Date.Before(other.Date) {
			return -1
		}
		if k.Date.After(other.Date) {
			return 1
		}
		return 0
	case k.HasDate:
		return 1
	case other.HasDate:
		return -1
	}
	return 0
}

// Before reports whether k sorts strictly before other.
func (k Key) Before(other Key) bool { return k.Compare(other) < 0 }

// Equal reports whether two keys denote the same fiscal period. Surface form
// is irrelevant: "Q1 2021" equals "2021 Q1", and "2021" equals "FY2021".
func (k Key) Equal(other Key) bool { return k.Compare(other) == 0 }

// Annual reports whether the key denotes a full fiscal year.
func (k Key) Annual() bool { return k.Parsed && k.Quarter == 0 }

// EndDate resolves the key to its period-end calendar date. Keys that carried
// an exact date return it unchanged; quarter keys resolve to the calendar
// quarter end and annual keys to December 31. Unparsed keys return the zero
// time.
func (k Key) EndDate() time.Time {
	switch {
	case !k.Parsed:
		return time.Time{}
	case k.HasDate:
		return k.Date
	case k.Quarter > 0:
		// Day zero of the following month normalizes to the last day of
		// the quarter's closing month.
		return time.Date(k.Year, time.Month(k.Quarter*3)+1, 0, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(k.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
}

// String renders a canonical form for parsed keys and echoes the raw label
// for unparsed ones.
func (k Key) String() string {
	switch {
	case !k.Parsed:
		return k.Label
	case k.HasDate:
		return k.Date.Format("2006-01-02")
	case k.Quarter > 0:
		return fmt.Sprintf("Q%d %d", k.Quarter, k.Year)
	default:
		return fmt.Sprintf("FY%d", k.Year)
	}
}

// YearSpan returns the whole-year distance between two keys, negative when
// last precedes first. Quarterly precision is deliberately ignored: CAGR over
// an annual series spans whole years only.
func YearSpan(first, last Key) int { return last.Year - first.Year }

// Sort orders keys in place, oldest first, unparsable labels last.
func Sort(keys []Key) {
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
}

// SortLabels parses and orders period labels, oldest first, unparsable
// labels last. The input slice is not modified.
func SortLabels(labels []string) []string {
	keys := make([]Key, len(labels))
	for i, l := range labels {
		keys[i] = Parse(l)
	}
	Sort(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Label
	}
	return out
}
