package rules

import (
	"fmt"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// Rule Compilation & Evaluation
// ════════════════════════════════════════════════════════════════════

// Rule is a compiled alert rule ready for repeated evaluation.
type Rule struct {
	Source  string // original expression text
	Message string // alert text emitted when the rule fires
	cond    Node
}

// Compile parses and validates a list of rule expressions. A rule is
// either a bare boolean expression, which alerts with its own source
// text, or an alert(condition, "message") wrapper. Compilation fails
// on the first malformed rule: a bad rule is a configuration error.
func Compile(exprs []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(exprs))
	for i, expr := range exprs {
		src := strings.TrimSpace(expr)
		if src == "" {
			continue
		}
		node, err := ParseRule(src)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if err := checkNode(node); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}

		rule := Rule{Source: src, Message: src, cond: node}
		if alert, ok := node.(*AlertExpr); ok {
			rule.cond = alert.Condition
			if alert.Message != "" {
				rule.Message = alert.Message
			} else {
				rule.Message = alert.Condition.String()
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Eval reports whether the rule fires against the given metrics.
// Missing metrics and degenerate arithmetic leave the condition
// undecided, which never fires.
func (r Rule) Eval(metrics map[string]float64) bool {
	b, known := eval(r.cond, metrics).toBool()
	return known && b
}

// Evaluate runs every rule against a snapshot's metrics and returns
// the messages of those that fired, in rule order.
func Evaluate(rules []Rule, metrics map[string]float64) []string {
	var alerts []string
	for _, r := range rules {
		if r.Eval(metrics) {
			alerts = append(alerts, r.Message)
		}
	}
	return alerts
}
