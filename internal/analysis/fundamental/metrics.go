package fundamental

import (
	"math"

	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/resolve"
	"github.com/seenimoa/filinglens/pkg/models"
)

// Canonical metric keys. Reports, custom rules and the API all address
// computed values by these names.
const (
	MetricRevenue           = "Revenue"
	MetricGrossProfit       = "Gross Profit"
	MetricGrossMargin       = "Gross Margin %"
	MetricOperatingExpenses = "Operating Expenses"
	MetricOperatingMargin   = "Operating Margin %"
	MetricNetIncome         = "Net Income"
	MetricNetMargin         = "Net Margin %"
	MetricEBIT              = "EBIT (approx)"
	MetricEBITDA            = "EBITDA (approx)"
	MetricEBITStandard      = "EBIT (standard)"
	MetricEBITDAStandard    = "EBITDA (standard)"
	MetricInterestExpense   = "Interest Expense"
	MetricIncomeTax         = "Income Tax Expense"
	MetricInterestCoverage  = "Interest Coverage"

	MetricCurrentRatio    = "Current Ratio"
	MetricDebtToEquity    = "Debt-to-Equity"
	MetricEquityRatio     = "Equity Ratio %"
	MetricROE             = "ROE %"
	MetricROA             = "ROA %"
	MetricNetDebt         = "Net Debt"
	MetricNetDebtEBITDA   = "Net Debt/EBITDA"
	MetricIntangibleRatio = "Intangible Ratio %"
	MetricGoodwillRatio   = "Goodwill Ratio %"
	MetricTangibleEquity  = "Tangible Equity"
	MetricLeaseRatio      = "Lease Liabilities Ratio %"

	MetricOperatingCashFlow = "Cash from Operations"
	MetricCapex             = "Capex"
	MetricFreeCashFlow      = "Free Cash Flow"
)

// Compute derives the ratio and alert set for a single reporting period.
// Statement tables may be nil when a filing lacks one. A metric appears in
// the result only when everything it needs resolved and its denominator is
// nonzero, so key absence always means "insufficient data" rather than
// "computed as zero" — the alert checks depend on that distinction.
func Compute(balance, income, cashflow *models.StatementTable, period string, res *resolve.Resolver, th config.AlertThresholds) models.FilingSnapshot {
	m := make(map[string]float64)

	get := func(c resolve.Concept, t *models.StatementTable) (float64, bool) {
		r, ok := res.Resolve(c, t, period)
		if !ok {
			return 0, false
		}
		return r.Value, true
	}

	// Income statement.
	revenue, hasRevenue := get(resolve.Revenue, income)
	costRev, hasCostRev := get(resolve.CostOfRevenue, income)
	gross, hasGross := get(resolve.GrossProfit, income)
	if !hasGross && hasRevenue && hasCostRev {
		gross, hasGross = revenue-costRev, true
	}
	opEx, hasOpEx := get(resolve.OperatingExpenses, income)
	opInc, hasOpInc := get(resolve.OperatingIncome, income)
	if !hasOpInc && hasGross && hasOpEx {
		opInc, hasOpInc = gross-opEx, true
	}
	netInc, hasNetInc := get(resolve.NetIncome, income)
	interestExp, hasInterest := get(resolve.InterestExpense, income)
	incomeTax, hasTax := get(resolve.IncomeTax, income)

	// D&A most often shows up as a cash-flow add-back; some filers report
	// it on the income statement instead.
	depAmort, hasDepAmort := get(resolve.DepreciationAmortization, cashflow)
	if !hasDepAmort {
		depAmort, hasDepAmort = get(resolve.DepreciationAmortization, income)
	}

	putIf(m, MetricRevenue, revenue, hasRevenue)
	putIf(m, MetricGrossProfit, gross, hasGross)
	putIf(m, MetricOperatingExpenses, opEx, hasOpEx)
	putIf(m, MetricNetIncome, netInc, hasNetInc)
	putIf(m, MetricInterestExpense, interestExp, hasInterest)
	putIf(m, MetricIncomeTax, incomeTax, hasTax)

	if hasRevenue && revenue != 0 {
		putIf(m, MetricGrossMargin, gross/revenue*100, hasGross)
		putIf(m, MetricOperatingMargin, opInc/revenue*100, hasOpInc)
		putIf(m, MetricNetMargin, netInc/revenue*100, hasNetInc)
	}

	putIf(m, MetricEBIT, opInc, hasOpInc)
	putIf(m, MetricEBITDA, opInc+depAmort, hasOpInc && hasDepAmort)

	if hasNetInc && hasInterest && hasTax {
		ebitStd := netInc + interestExp + incomeTax
		m[MetricEBITStandard] = ebitStd
		putIf(m, MetricEBITDAStandard, ebitStd+depAmort, hasDepAmort)
		if interestExp != 0 {
			m[MetricInterestCoverage] = ebitStd / interestExp
		}
	}

	// Balance sheet.
	currAssets, hasCurrAssets := get(resolve.CurrentAssets, balance)
	currLiabs, hasCurrLiabs := get(resolve.CurrentLiabilities, balance)
	totalAssets, hasTotalAssets := get(resolve.TotalAssets, balance)
	totalEquity, hasTotalEquity := get(resolve.TotalEquity, balance)
	debt, hasDebt := get(resolve.TotalDebt, balance)

	// Leverage falls back to the classic liabilities-to-equity form when a
	// filer reports no explicit debt line.
	leverage, hasLeverage := debt, hasDebt
	if !hasLeverage {
		leverage, hasLeverage = get(resolve.TotalLiabilities, balance)
	}

	if hasCurrAssets && hasCurrLiabs && currLiabs != 0 {
		m[MetricCurrentRatio] = currAssets / currLiabs
	}
	if hasLeverage && hasTotalEquity && totalEquity != 0 {
		m[MetricDebtToEquity] = leverage / totalEquity
	}
	if hasTotalEquity && hasTotalAssets && totalAssets != 0 {
		m[MetricEquityRatio] = totalEquity / totalAssets * 100
	}
	if hasNetInc && hasTotalEquity && totalEquity != 0 {
		m[MetricROE] = netInc / totalEquity * 100
	}
	if hasNetInc && hasTotalAssets && totalAssets != 0 {
		m[MetricROA] = netInc / totalAssets * 100
	}

	// IFRS/GAAP expansions.
	intangibles, hasIntangibles := get(resolve.IntangibleAssets, balance)
	goodwill, hasGoodwill := get(resolve.Goodwill, balance)
	leases, hasLeases := get(resolve.LeaseLiabilities, balance)
	cashEquiv, hasCashEquiv := get(resolve.CashEquivalents, balance)

	if hasTotalAssets && totalAssets > 0 {
		putIf(m, MetricIntangibleRatio, intangibles/totalAssets*100, hasIntangibles)
		putIf(m, MetricGoodwillRatio, goodwill/totalAssets*100, hasGoodwill)
		putIf(m, MetricLeaseRatio, leases/totalAssets*100, hasLeases)
	}
	if hasTotalEquity {
		// Equity is the only required input; unreported intangibles and
		// goodwill count as zero. Clamped at zero.
		m[MetricTangibleEquity] = math.Max(totalEquity-intangibles-goodwill, 0)
	}
	if hasDebt && hasCashEquiv {
		netDebt := debt - cashEquiv
		if hasLeases {
			netDebt += leases
		}
		m[MetricNetDebt] = netDebt
		if ebitda, ok := m[MetricEBITDA]; ok && ebitda != 0 {
			m[MetricNetDebtEBITDA] = netDebt / ebitda
		}
	}

	// Cash flow.
	opCF, hasOpCF := get(resolve.OperatingCashFlow, cashflow)
	capex, hasCapex := get(resolve.Capex, cashflow)

	putIf(m, MetricOperatingCashFlow, opCF, hasOpCF)
	putIf(m, MetricCapex, capex, hasCapex)
	putIf(m, MetricFreeCashFlow, opCF-capex, hasOpCF && hasCapex)

	return models.FilingSnapshot{
		Period:  period,
		Metrics: m,
		Alerts:  EvaluateAlerts(m, th),
	}
}

// --- helpers ---

// putIf stores v under key only when ok is true, keeping absent inputs
// absent in the output map.
func putIf(m map[string]float64, key string, v float64, ok bool) {
	if ok {
		m[key] = v
	}
}
