package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// Parser — Recursive Descent
// ════════════════════════════════════════════════════════════════════

// Parser transforms a token stream into an AST.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser from a token slice.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the full expression.
func (p *Parser) Parse() (Node, error) {
	node, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		tok := p.peek()
		return nil, p.errorf(tok, "unexpected token %s after expression", tok.Value)
	}
	return node, nil
}

// ParseRule is the top-level public function to parse a rule expression.
func ParseRule(input string) (Node, error) {
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// ────────────────────────────────────────────────────────────────────
// Token helpers
// ────────────────────────────────────────────────────────────────────

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == TokenEOF
}

func (p *Parser) expect(typ TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != typ {
		return tok, p.errorf(tok, "expected %s, got %s (%q)", typ, tok.Type, tok.Value)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	return &ParseError{
		Position: tok.Position,
		Line:     tok.Line,
		Column:   tok.Column,
		Message:  fmt.Sprintf(format, args...),
	}
}

// ────────────────────────────────────────────────────────────────────
// Grammar (precedence from lowest to highest):
//   OrExpr         → AndExpr ( 'OR' AndExpr )*
//   AndExpr        → NotExpr ( 'AND' NotExpr )*
//   NotExpr        → 'NOT' NotExpr | Comparison
//   Comparison     → Addition ( ('>'|'<'|'>='|'<='|'=='|'!=') Addition )?
//   Addition       → Multiplication ( ('+'|'-') Multiplication )*
//   Multiplication → Unary ( ('*'|'/') Unary )*
//   Unary          → '-' Unary | Primary
//   Primary        → Number | String | '(' Expr ')' | FunctionCall | Identifier
// ────────────────────────────────────────────────────────────────────

func (p *Parser) parseOrExpr() (Node, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenOR {
		opTok := p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Position: opTok.Position, Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (Node, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenAND {
		opTok := p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Position: opTok.Position, Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNotExpr() (Node, error) {
	if p.peek().Type == TokenNOT {
		opTok := p.advance()
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Position: opTok.Position, Op: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}
	switch p.peek().Type {
	case TokenGT, TokenLT, TokenGTE, TokenLTE, TokenEQ, TokenNEQ:
		opTok := p.advance()
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Position: opTok.Position, Op: opTok.Value, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAddition() (Node, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Type != TokenPlus && tok.Type != TokenMinus {
			break
		}
		opTok := p.advance()
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Position: opTok.Position, Op: opTok.Value, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplication() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Type != TokenStar && tok.Type != TokenSlash {
			break
		}
		opTok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Position: opTok.Position, Op: opTok.Value, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Node, error) {
	if p.peek().Type == TokenMinus {
		opTok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Position: opTok.Position, Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid number %q: %v", tok.Value, err)
		}
		return &NumberLiteral{Position: tok.Position, Value: val, Raw: tok.Value}, nil

	case TokenString:
		p.advance()
		return &StringLiteral{Position: tok.Position, Value: tok.Value}, nil

	case TokenLParen:
		p.advance()
		inner, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case TokenIdentifier:
		return p.parseIdentifierOrCall()

	default:
		return nil, p.errorf(tok, "unexpected token %s (%q)", tok.Type, tok.Value)
	}
}

func (p *Parser) parseIdentifierOrCall() (Node, error) {
	tok := p.advance()

	if p.peek().Type != TokenLParen {
		return &Identifier{Position: tok.Position, Name: tok.Value}, nil
	}

	name := strings.ToLower(tok.Value)
	if name == "alert" {
		return p.parseAlertCall(tok)
	}

	p.advance() // consume (
	var args []Node
	if p.peek().Type != TokenRParen {
		for {
			arg, err := p.parseOrExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Type != TokenComma {
				break
			}
			p.advance() // consume ,
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return &FunctionCall{Position: tok.Position, Name: name, Args: args}, nil
}

func (p *Parser) parseAlertCall(nameTok Token) (Node, error) {
	p.advance() // consume (

	condition, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}

	message := ""
	if p.peek().Type == TokenComma {
		p.advance()
		msgTok, err := p.expect(TokenString)
		if err != nil {
			return nil, err
		}
		message = msgTok.Value
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return &AlertExpr{Position: nameTok.Position, Condition: condition, Message: message}, nil
}
