// Package resolve maps canonical financial concepts to rows of labeled
// statement tables.
//
// Filers report the same economic concept under wildly different labels and
// sign conventions. The resolver walks a curated, priority-ordered synonym
// catalogue per concept, scans table row labels case-insensitively, and
// normalizes the matched value: expense-type concepts reported negative are
// flipped to positive magnitude, and capital expenditures missing from the
// cash flow statement are approximated from net investing activity.
package resolve

// Concept is a canonical financial line-item identifier, independent of
// filer-specific wording. The set is closed; synonym files may extend the
// patterns of a concept but cannot invent new concepts.
type Concept string

const (
	// Income statement.
	Revenue                  Concept = "REVENUE"
	CostOfRevenue            Concept = "COST_OF_REVENUE"
	GrossProfit              Concept = "GROSS_PROFIT"
	OperatingExpenses        Concept = "OPERATING_EXPENSES"
	OperatingIncome          Concept = "OPERATING_INCOME"
	DepreciationAmortization Concept = "DEPRECIATION_AMORTIZATION"
	InterestExpense          Concept = "INTEREST_EXPENSE"
	IncomeTax                Concept = "INCOME_TAX"
	NetIncome                Concept = "NET_INCOME"

	// Balance sheet.
	CurrentAssets      Concept = "CURRENT_ASSETS"
	CurrentLiabilities Concept = "CURRENT_LIABILITIES"
	TotalAssets        Concept = "TOTAL_ASSETS"
	TotalLiabilities   Concept = "TOTAL_LIABILITIES"
	TotalDebt          Concept = "TOTAL_DEBT"
	TotalEquity        Concept = "TOTAL_EQUITY"
	CashEquivalents    Concept = "CASH_EQUIVALENTS"
	Inventory          Concept = "INVENTORY"
	Receivables        Concept = "RECEIVABLES"
	Goodwill           Concept = "GOODWILL"
	IntangibleAssets   Concept = "INTANGIBLE_ASSETS"
	LeaseLiabilities   Concept = "LEASE_LIABILITIES"

	// Cash flow statement.
	OperatingCashFlow   Concept = "OPERATING_CASH_FLOW"
	NetCashInvesting    Concept = "NET_CASH_INVESTING"
	Capex               Concept = "CAPEX"
	IntangiblePurchases Concept = "INTANGIBLE_PURCHASES"
	Acquisitions        Concept = "ACQUISITIONS"
)

// AllConcepts lists every canonical concept in declaration order.
func AllConcepts() []Concept {
	return []Concept{
		Revenue, CostOfRevenue, GrossProfit, OperatingExpenses, OperatingIncome,
		DepreciationAmortization, InterestExpense, IncomeTax, NetIncome,
		CurrentAssets, CurrentLiabilities, TotalAssets, TotalLiabilities,
		TotalDebt, TotalEquity, CashEquivalents, Inventory, Receivables,
		Goodwill, IntangibleAssets, LeaseLiabilities,
		OperatingCashFlow, NetCashInvesting, Capex, IntangiblePurchases,
		Acquisitions,
	}
}

// expenseLike classifies concepts reported as costs. A negative raw value for
// these contradicts the positive-magnitude convention and gets flipped.
var expenseLike = map[Concept]bool{
	CostOfRevenue:            true,
	OperatingExpenses:        true,
	DepreciationAmortization: true,
	InterestExpense:          true,
	IncomeTax:                true,
	Capex:                    true,
	IntangiblePurchases:      true,
	Acquisitions:             true,
}

// ExpenseLike reports whether a concept follows the positive-magnitude
// expense convention.
func ExpenseLike(c Concept) bool { return expenseLike[c] }

// Valid reports whether c is a member of the closed concept set.
func Valid(c Concept) bool {
	for _, k := range AllConcepts() {
		if k == c {
			return true
		}
	}
	return false
}
