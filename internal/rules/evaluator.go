package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/filinglens/internal/analysis/fundamental"
)

// ════════════════════════════════════════════════════════════════════
// Metric Aliases
// ════════════════════════════════════════════════════════════════════

// metricAliases maps rule identifiers to snapshot metric keys. Metric
// keys themselves carry spaces and symbols, so rules use snake_case
// names instead.
var metricAliases = map[string]string{
	"revenue":              fundamental.MetricRevenue,
	"gross_profit":         fundamental.MetricGrossProfit,
	"gross_margin":         fundamental.MetricGrossMargin,
	"operating_expenses":   fundamental.MetricOperatingExpenses,
	"operating_margin":     fundamental.MetricOperatingMargin,
	"net_income":           fundamental.MetricNetIncome,
	"net_margin":           fundamental.MetricNetMargin,
	"ebit":                 fundamental.MetricEBIT,
	"ebitda":               fundamental.MetricEBITDA,
	"ebit_standard":        fundamental.MetricEBITStandard,
	"ebitda_standard":      fundamental.MetricEBITDAStandard,
	"interest_expense":     fundamental.MetricInterestExpense,
	"income_tax":           fundamental.MetricIncomeTax,
	"interest_coverage":    fundamental.MetricInterestCoverage,
	"current_ratio":        fundamental.MetricCurrentRatio,
	"debt_to_equity":       fundamental.MetricDebtToEquity,
	"equity_ratio":         fundamental.MetricEquityRatio,
	"roe":                  fundamental.MetricROE,
	"roa":                  fundamental.MetricROA,
	"net_debt":             fundamental.MetricNetDebt,
	"net_debt_ebitda":      fundamental.MetricNetDebtEBITDA,
	"intangible_ratio":     fundamental.MetricIntangibleRatio,
	"goodwill_ratio":       fundamental.MetricGoodwillRatio,
	"tangible_equity":      fundamental.MetricTangibleEquity,
	"lease_ratio":          fundamental.MetricLeaseRatio,
	"cash_from_operations": fundamental.MetricOperatingCashFlow,
	"capex":                fundamental.MetricCapex,
	"free_cash_flow":       fundamental.MetricFreeCashFlow,
	"fcf":                  fundamental.MetricFreeCashFlow,
}

// MetricNames returns the rule identifiers in no particular order.
func MetricNames() []string {
	names := make([]string, 0, len(metricAliases))
	for name := range metricAliases {
		names = append(names, name)
	}
	return names
}

// ════════════════════════════════════════════════════════════════════
// Evaluator — Three-Valued
// ════════════════════════════════════════════════════════════════════

// A value is either known or unknown. Unknown values arise from
// metrics absent in the snapshot and from degenerate arithmetic
// (division by zero); they propagate so that a rule whose inputs are
// incomplete never fires.

type valueKind int

const (
	kindNumber valueKind = iota
	kindBool
	kindString
)

type value struct {
	kind  valueKind
	num   float64
	b     bool
	str   string
	known bool
}

func number(v float64) value { return value{kind: kindNumber, num: v, known: true} }

func boolean(b bool) value { return value{kind: kindBool, b: b, known: true} }

func str(s string) value { return value{kind: kindString, str: s, known: true} }

func unknownNumber() value { return value{kind: kindNumber} }

func unknownBool() value { return value{kind: kindBool} }

func (v value) toBool() (bool, bool) {
	if !v.known {
		return false, false
	}
	switch v.kind {
	case kindBool:
		return v.b, true
	case kindNumber:
		return v.num != 0, true
	case kindString:
		return v.str != "", true
	}
	return false, false
}

func (v value) toNum() (float64, bool) {
	if !v.known {
		return 0, false
	}
	switch v.kind {
	case kindNumber:
		return v.num, true
	case kindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func eval(n Node, m map[string]float64) value {
	switch n := n.(type) {
	case *NumberLiteral:
		return number(n.Value)

	case *StringLiteral:
		return str(n.Value)

	case *Identifier:
		if key, ok := metricAliases[strings.ToLower(n.Name)]; ok {
			if v, ok := m[key]; ok {
				return number(v)
			}
		}
		return unknownNumber()

	case *FunctionCall:
		return evalCall(n, m)

	case *UnaryExpr:
		return evalUnary(n, m)

	case *BinaryExpr:
		return evalBinary(n, m)

	case *AlertExpr:
		return eval(n.Condition, m)
	}
	return unknownBool()
}

func evalUnary(n *UnaryExpr, m map[string]float64) value {
	v := eval(n.Operand, m)
	switch n.Op {
	case "-":
		num, ok := v.toNum()
		if !ok {
			return unknownNumber()
		}
		return number(-num)
	case "NOT":
		b, ok := v.toBool()
		if !ok {
			return unknownBool()
		}
		return boolean(!b)
	}
	return unknownBool()
}

func evalBinary(n *BinaryExpr, m map[string]float64) value {
	// Logical operators use Kleene semantics: a known false AND or a
	// known true OR decides the result even when the other side is
	// unknown.
	switch n.Op {
	case "AND":
		return evalAnd(eval(n.Left, m), eval(n.Right, m))
	case "OR":
		return evalOr(eval(n.Left, m), eval(n.Right, m))
	}

	left, lok := eval(n.Left, m).toNum()
	right, rok := eval(n.Right, m).toNum()

	switch n.Op {
	case "+", "-", "*", "/":
		if !lok || !rok {
			return unknownNumber()
		}
		switch n.Op {
		case "+":
			return number(left + right)
		case "-":
			return number(left - right)
		case "*":
			return number(left * right)
		default:
			if right == 0 {
				return unknownNumber()
			}
			return number(left / right)
		}

	case ">", "<", ">=", "<=", "==", "!=":
		if !lok || !rok {
			return unknownBool()
		}
		switch n.Op {
		case ">":
			return boolean(left > right)
		case "<":
			return boolean(left < right)
		case ">=":
			return boolean(left >= right)
		case "<=":
			return boolean(left <= right)
		case "==":
			return boolean(left == right)
		default:
			return boolean(left != right)
		}
	}
	return unknownBool()
}

func evalAnd(l, r value) value {
	lb, lok := l.toBool()
	rb, rok := r.toBool()
	if (lok && !lb) || (rok && !rb) {
		return boolean(false)
	}
	if lok && rok {
		return boolean(lb && rb)
	}
	return unknownBool()
}

func evalOr(l, r value) value {
	lb, lok := l.toBool()
	rb, rok := r.toBool()
	if (lok && lb) || (rok && rb) {
		return boolean(true)
	}
	if lok && rok {
		return boolean(lb || rb)
	}
	return unknownBool()
}

// ────────────────────────────────────────────────────────────────────
// Built-in functions
// ────────────────────────────────────────────────────────────────────

func evalCall(n *FunctionCall, m map[string]float64) value {
	nums := make([]float64, len(n.Args))
	for i, arg := range n.Args {
		v, ok := eval(arg, m).toNum()
		if !ok {
			return unknownNumber()
		}
		nums[i] = v
	}

	switch n.Name {
	case "abs":
		return number(math.Abs(nums[0]))
	case "min":
		out := nums[0]
		for _, v := range nums[1:] {
			out = math.Min(out, v)
		}
		return number(out)
	case "max":
		out := nums[0]
		for _, v := range nums[1:] {
			out = math.Max(out, v)
		}
		return number(out)
	}
	return unknownNumber()
}

// checkNode validates function names, arities and metric identifiers
// at compile time so typos surface at startup, not silently at
// evaluation.
func checkNode(n Node) error {
	switch n := n.(type) {
	case *NumberLiteral, *StringLiteral:
		return nil

	case *Identifier:
		if _, ok := metricAliases[strings.ToLower(n.Name)]; !ok {
			return fmt.Errorf("unknown metric %q", n.Name)
		}
		return nil

	case *FunctionCall:
		switch n.Name {
		case "abs":
			if len(n.Args) != 1 {
				return fmt.Errorf("abs takes exactly one argument, got %d", len(n.Args))
			}
		case "min", "max":
			if len(n.Args) < 1 {
				return fmt.Errorf("%s takes at least one argument", n.Name)
			}
		default:
			return fmt.Errorf("unknown function %q", n.Name)
		}
		for _, arg := range n.Args {
			if err := checkNode(arg); err != nil {
				return err
			}
		}
		return nil

	case *UnaryExpr:
		return checkNode(n.Operand)

	case *BinaryExpr:
		if err := checkNode(n.Left); err != nil {
			return err
		}
		return checkNode(n.Right)

	case *AlertExpr:
		return checkNode(n.Condition)
	}
	return fmt.Errorf("unsupported node type %T", n)
}
