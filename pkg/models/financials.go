package models

import "fmt"

// StatementType identifies which financial statement a table was extracted from.
type StatementType string

const (
	StatementBalance  StatementType = "balance_sheet"
	StatementIncome   StatementType = "income_statement"
	StatementCashFlow StatementType = "cash_flow"
)

// FormType identifies the filing form a set of statements belongs to.
type FormType string

const (
	FormAnnual    FormType = "10-K"
	FormQuarterly FormType = "10-Q"
)

// Cell is a single numeric entry in a statement table. Valid is false when
// the filer reported no value for that row in that period.
type Cell struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Num returns a populated cell.
func Num(v float64) Cell { return Cell{Value: v, Valid: true} }

// StatementRow is one line item as labeled by the filer, with one cell per
// period column.
type StatementRow struct {
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

// StatementTable is a row-labeled, column-labeled numeric matrix extracted
// from a single financial statement. Rows keep filing order; Periods keep
// column order as filed (typically newest first). Labels are free-form filer
// wording, e.g. "Total revenues, net" — canonicalization happens downstream.
type StatementTable struct {
	Ticker  string         `json:"ticker"`
	Type    StatementType  `json:"type"`
	Periods []string       `json:"periods"`
	Rows    []StatementRow `json:"rows"`
}

// ShapeError reports a table whose rows do not line up with its period
// columns. This is the one malformed-input condition that fails fast.
type ShapeError struct {
	Label string
	Got   int
	Want  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("statement table: row %q has %d cells, want %d", e.Label, e.Got, e.Want)
}

// Validate checks that every row has exactly one cell per period column.
func (t *StatementTable) Validate() error {
	for _, row := range t.Rows {
		if len(row.Cells) != len(t.Periods) {
			return &ShapeError{Label: row.Label, Got: len(row.Cells), Want: len(t.Periods)}
		}
	}
	return nil
}

// AddRow appends a labeled row. Missing trailing cells are padded as invalid
// so the table stays rectangular.
func (t *StatementTable) AddRow(label string, cells ...Cell) {
	for len(cells) < len(t.Periods) {
		cells = append(cells, Cell{})
	}
	t.Rows = append(t.Rows, StatementRow{Label: label, Cells: cells})
}

// PeriodIndex returns the column index for a period label, or -1.
func (t *StatementTable) PeriodIndex(period string) int {
	for i, p := range t.Periods {
		if p == period {
			return i
		}
	}
	return -1
}

// Cell returns the cell at a row/column pair, comma-ok.
func (t *StatementTable) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row].Cells) {
		return Cell{}, false
	}
	return t.Rows[row].Cells[col], true
}

// FilingMetadata describes the filing a set of statements came from.
type FilingMetadata struct {
	Ticker          string   `json:"ticker"`
	CompanyName     string   `json:"company_name"`
	FormType        FormType `json:"form_type"`
	FilingDate      string   `json:"filing_date"`      // YYYY-MM-DD
	AccessionNumber string   `json:"accession_number"` // e.g., "0000320193-25-000073"
}

// FilingStatements bundles the three statement tables of one filing. Tables
// for the same filing share column period labels. Any table may be nil when
// the filing did not include it.
type FilingStatements struct {
	Meta     FilingMetadata  `json:"meta"`
	Balance  *StatementTable `json:"balance,omitempty"`
	Income   *StatementTable `json:"income,omitempty"`
	CashFlow *StatementTable `json:"cash_flow,omitempty"`
}

// LatestPeriod returns the first shared column label of the filing's tables,
// which by filing convention is the most recent period.
func (f *FilingStatements) LatestPeriod() string {
	for _, t := range []*StatementTable{f.Income, f.Balance, f.CashFlow} {
		if t != nil && len(t.Periods) > 0 {
			return t.Periods[0]
		}
	}
	return ""
}

// FilingSnapshot is the per-filing analysis unit: every metric that could be
// resolved plus the alerts raised against it. Metrics that could not be
// resolved are absent from the map, never zero-filled.
type FilingSnapshot struct {
	Meta    FilingMetadata     `json:"meta"`
	Period  string             `json:"period"`
	Metrics map[string]float64 `json:"metrics"`
	Alerts  []string           `json:"alerts,omitempty"`
}

// Metric returns a metric by key, comma-ok. Absence means the inputs for the
// metric did not resolve, which is distinct from a computed zero.
func (s *FilingSnapshot) Metric(key string) (float64, bool) {
	v, ok := s.Metrics[key]
	return v, ok
}
