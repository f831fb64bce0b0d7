package resolve

import (
	"strings"

	"github.com/seenimoa/filinglens/pkg/models"
)

// Resolution is the outcome of resolving one concept against one period
// column of a statement table.
type Resolution struct {
	Concept     Concept `json:"concept"`
	Label       string  `json:"label"` // row label as filed
	Value       float64 `json:"value"`
	Period      string  `json:"period"`
	SignFlipped bool    `json:"sign_flipped"`
	Derived     bool    `json:"derived"` // approximated from other lines, not read directly
}

// Resolver matches canonical concepts against statement tables. It holds an
// immutable lowercased copy of its synonym catalogue, so a single instance is
// safe for unsynchronized concurrent use.
type Resolver struct {
	patterns map[Concept][]string
}

// NewResolver builds a resolver over the given catalogue.
func NewResolver(set SynonymSet) *Resolver {
	patterns := make(map[Concept][]string, len(set))
	for c, list := range set {
		lowered := make([]string, len(list))
		for i, p := range list {
			lowered[i] = strings.ToLower(p)
		}
		patterns[c] = lowered
	}
	return &Resolver{patterns: patterns}
}

// NewDefaultResolver builds a resolver over the built-in catalogue.
func NewDefaultResolver() *Resolver {
	return NewResolver(DefaultSynonyms())
}

// Patterns returns the catalogue as concept to match patterns, lowercased
// the way they are matched. The map and its slices are copies.
func (r *Resolver) Patterns() map[Concept][]string {
	out := make(map[Concept][]string, len(r.patterns))
	for c, list := range r.patterns {
		out[c] = append([]string(nil), list...)
	}
	return out
}

// Resolve finds the best-matching row for a concept in one period column.
// Pattern priority is the outer loop and row scan the inner one: the first
// row matched by the highest-priority pattern wins outright, there is no
// scoring. The second return is false when no pattern matched any row —
// callers must treat that as "metric unavailable", not as a failure.
//
// CAPEX alone carries a fallback chain: when no direct synonym matches, a net
// investing outflow is redistributed into an approximation (see resolveCapex).
func (r *Resolver) Resolve(concept Concept, table *models.StatementTable, period string) (Resolution, bool) {
	if concept == Capex {
		return r.resolveCapex(table, period)
	}
	return r.direct(concept, table, period)
}

func (r *Resolver) direct(concept Concept, table *models.StatementTable, period string) (Resolution, bool) {
	if table == nil {
		return Resolution{}, false
	}
	col := table.PeriodIndex(period)
	if col < 0 {
		return Resolution{}, false
	}
	for _, pattern := range r.patterns[concept] {
		for _, row := range table.Rows {
			if !strings.Contains(strings.ToLower(row.Label), pattern) {
				continue
			}
			if col >= len(row.Cells) || !row.Cells[col].Valid {
				continue // matched label but no value this period, keep scanning
			}
			res := Resolution{
				Concept: concept,
				Label:   row.Label,
				Value:   row.Cells[col].Value,
				Period:  period,
			}
			if ExpenseLike(concept) && res.Value < 0 {
				res.Value = -res.Value
				res.SignFlipped = true
			}
			return res, true
		}
	}
	return Resolution{}, false
}

// resolveCapex approximates capital expenditures when the cash flow statement
// has no direct capex line. Net investing activity must be an outflow
// (negative); intangible-asset purchases and business acquisitions are
// subtracted from its magnitude so M&A and intangibles are not attributed to
// recurring capex, and the remainder is clamped at zero. A missing or
// non-negative investing line yields NotFound.
func (r *Resolver) resolveCapex(table *models.StatementTable, period string) (Resolution, bool) {
	if res, ok := r.direct(Capex, table, period); ok {
		return res, true
	}
	inv, ok := r.direct(NetCashInvesting, table, period)
	if !ok || inv.Value >= 0 {
		return Resolution{}, false
	}
	capex := -inv.Value
	if p, ok := r.direct(IntangiblePurchases, table, period); ok {
		capex -= p.Value
	}
	if a, ok := r.direct(Acquisitions, table, period); ok {
		capex -= a.Value
	}
	if capex < 0 {
		capex = 0
	}
	return Resolution{
		Concept: Capex,
		Label:   inv.Label,
		Value:   capex,
		Period:  period,
		Derived: true,
	}, true
}
