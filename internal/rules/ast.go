// Package rules implements a small expression language for user-defined
// alert rules evaluated against computed filing metrics. It provides a
// lexer, recursive descent parser, AST representation, and a null-safe
// evaluator: a rule whose inputs are missing from the metrics map never
// fires.
package rules

import "fmt"

// ════════════════════════════════════════════════════════════════════
// AST Node Types
// ════════════════════════════════════════════════════════════════════

// Node is the interface for all AST nodes.
type Node interface {
	nodeType() string
	// Pos returns the position (byte offset) in the original source.
	Pos() int
	String() string
}

// NumberLiteral represents a numeric constant (e.g. 5, 3.5, 0.0).
type NumberLiteral struct {
	Position int
	Value    float64
	Raw      string
}

func (n *NumberLiteral) nodeType() string { return "NumberLiteral" }
func (n *NumberLiteral) Pos() int         { return n.Position }
func (n *NumberLiteral) String() string   { return n.Raw }

// StringLiteral represents a quoted string; used for alert messages.
type StringLiteral struct {
	Position int
	Value    string
}

func (n *StringLiteral) nodeType() string { return "StringLiteral" }
func (n *StringLiteral) Pos() int         { return n.Position }
func (n *StringLiteral) String() string   { return fmt.Sprintf("%q", n.Value) }

// Identifier represents a metric reference, e.g. net_margin or roe.
type Identifier struct {
	Position int
	Name     string
}

func (n *Identifier) nodeType() string { return "Identifier" }
func (n *Identifier) Pos() int         { return n.Position }
func (n *Identifier) String() string   { return n.Name }

// FunctionCall represents a numeric helper invocation, e.g. abs(net_debt).
type FunctionCall struct {
	Position int
	Name     string // lower-cased
	Args     []Node
}

func (n *FunctionCall) nodeType() string { return "FunctionCall" }
func (n *FunctionCall) Pos() int         { return n.Position }
func (n *FunctionCall) String() string {
	s := n.Name + "("
	for i, a := range n.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// BinaryExpr represents a binary operation e.g. a + b, roe < 5, a AND b.
type BinaryExpr struct {
	Position int
	Op       string // "+", "-", "*", "/", ">", "<", ">=", "<=", "==", "!=", "AND", "OR"
	Left     Node
	Right    Node
}

func (n *BinaryExpr) nodeType() string { return "BinaryExpr" }
func (n *BinaryExpr) Pos() int         { return n.Position }
func (n *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Op, n.Right.String())
}

// UnaryExpr represents a unary operation e.g. NOT x, -5.
type UnaryExpr struct {
	Position int
	Op       string // "NOT", "-"
	Operand  Node
}

func (n *UnaryExpr) nodeType() string { return "UnaryExpr" }
func (n *UnaryExpr) Pos() int         { return n.Position }
func (n *UnaryExpr) String() string   { return fmt.Sprintf("(%s %s)", n.Op, n.Operand.String()) }

// AlertExpr represents an alert(condition, "message") rule wrapper.
type AlertExpr struct {
	Position  int
	Condition Node
	Message   string
}

func (n *AlertExpr) nodeType() string { return "AlertExpr" }
func (n *AlertExpr) Pos() int         { return n.Position }
func (n *AlertExpr) String() string {
	return fmt.Sprintf("alert(%s, %q)", n.Condition.String(), n.Message)
}

// ════════════════════════════════════════════════════════════════════
// Parse Error
// ════════════════════════════════════════════════════════════════════

// ParseError captures parsing errors with position context.
type ParseError struct {
	Position int
	Line     int
	Column   int
	Message  string
	Hint     string // optional suggestion
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("line %d, col %d", e.Line, e.Column)
	msg := fmt.Sprintf("parse error at %s: %s", loc, e.Message)
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	return msg
}
