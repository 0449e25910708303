package parser

import (
	"strconv"
	"strings"

	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/compiler/lexer"
)

// Precedence levels.  Boolean operators and arithmetic operators are
// climbed separately since a comparison separates the two.
const (
	precOr  = 3
	precAnd = 4
	precNot = 5

	precAdd   = 1
	precMul   = 2
	precUnary = 3
)

// booleanExpr parses a chain of AND and OR operators whose precedence is
// at least minPrec.  Operators of equal precedence associate left.
func (p *parser) booleanExpr(minPrec int) ast.Expr {
	first := p.peek().Pos
	var lhs ast.Expr
	if p.accept(lexer.Not) {
		operand := p.booleanExpr(precNot)
		lhs = &ast.LogicalNot{Kind: "LogicalNot", Expr: operand, Loc: p.loc(first)}
	} else {
		lhs = p.predicate()
	}
	for {
		var op string
		var prec int
		switch p.peek().Kind {
		case lexer.And:
			op, prec = "and", precAnd
		case lexer.Or:
			op, prec = "or", precOr
		default:
			return lhs
		}
		if prec < minPrec {
			return lhs
		}
		p.next()
		rhs := p.booleanExpr(prec + 1)
		lhs = &ast.LogicalBinary{Kind: "LogicalBinary", Op: op, LHS: lhs, RHS: rhs, Loc: p.loc(first)}
	}
}

// predicate parses a value expression with an optional LIKE, RLIKE, IN,
// or IS NULL test.
func (p *parser) predicate() ast.Expr {
	first := p.peek().Pos
	e := p.valueExpr()
	not := false
	if p.at(lexer.Not) {
		switch p.peekN(1).Kind {
		case lexer.Like, lexer.Rlike, lexer.In:
			p.next()
			not = true
		default:
			return e
		}
	}
	switch tok := p.peek(); tok.Kind {
	case lexer.Like, lexer.Rlike:
		p.next()
		var pattern ast.Expr
		if p.at(lexer.Param, lexer.NamedParam) {
			pattern = p.param()
		} else {
			ptok := p.expect(lexer.QuotedString)
			pattern = &ast.Literal{Kind: "Literal", Type: "string", Text: unquoteString(ptok.Text), Loc: ast.NewLoc(ptok.Pos, ptok.End)}
		}
		op := strings.ToLower(tok.Text)
		return &ast.RegexMatch{Kind: "RegexMatch", Op: op, Not: not, Expr: e, Pattern: pattern, Loc: p.loc(first)}
	case lexer.In:
		p.next()
		p.expect(lexer.LParen)
		list := []ast.Expr{p.valueExpr()}
		for p.accept(lexer.Comma) {
			list = append(list, p.valueExpr())
		}
		p.expect(lexer.RParen)
		return &ast.InList{Kind: "InList", Not: not, Expr: e, List: list, Loc: p.loc(first)}
	case lexer.Is:
		p.next()
		isNot := p.accept(lexer.Not)
		p.expect(lexer.Null)
		return &ast.IsNull{Kind: "IsNull", Not: isNot, Expr: e, Loc: p.loc(first)}
	}
	return e
}

var comparisonOps = map[lexer.Kind]string{
	lexer.Eq:     "==",
	lexer.Assign: "==",
	lexer.CIEq:   "=~",
	lexer.Neq:    "!=",
	lexer.Lt:     "<",
	lexer.Lte:    "<=",
	lexer.Gt:     ">",
	lexer.Gte:    ">=",
}

// valueExpr parses an operator expression optionally compared to a
// second one.  Comparisons do not chain.
func (p *parser) valueExpr() ast.Expr {
	first := p.peek().Pos
	lhs := p.operatorExpr(0)
	op, ok := comparisonOps[p.peek().Kind]
	if !ok {
		return lhs
	}
	p.next()
	rhs := p.operatorExpr(0)
	return &ast.Comparison{Kind: "Comparison", Op: op, LHS: lhs, RHS: rhs, Loc: p.loc(first)}
}

// operatorExpr climbs the arithmetic operators.  Unary signs bind tighter
// than any binary operator.
func (p *parser) operatorExpr(minPrec int) ast.Expr {
	first := p.peek().Pos
	var lhs ast.Expr
	if p.at(lexer.Plus, lexer.Minus) && isNumber(p.peekN(1).Kind) {
		// A signed number is a constant, so casts bind to it: -2::keyword
		// is (-2)::keyword.
		lhs = p.casts(p.signedConstant(), first)
	} else if p.at(lexer.Plus, lexer.Minus) {
		op := p.next().Text
		operand := p.operatorExpr(precUnary)
		lhs = p.unary(op, operand, first)
	} else {
		lhs = p.primaryExpr()
	}
	for {
		var prec int
		switch p.peek().Kind {
		case lexer.Asterisk, lexer.Slash, lexer.Percent:
			prec = precMul
		case lexer.Plus, lexer.Minus:
			prec = precAdd
		default:
			return lhs
		}
		if prec < minPrec {
			return lhs
		}
		op := p.next().Text
		rhs := p.operatorExpr(prec + 1)
		lhs = &ast.ArithmeticBinary{Kind: "ArithmeticBinary", Op: op, LHS: lhs, RHS: rhs, Loc: p.loc(first)}
	}
}

// unary folds a sign into a numeric literal and otherwise builds an
// ArithmeticUnary.
func (p *parser) unary(op string, operand ast.Expr, first int) ast.Expr {
	if lit, ok := operand.(*ast.Literal); ok && (lit.Type == "integer" || lit.Type == "decimal") {
		text := lit.Text
		if op == "-" {
			if strings.HasPrefix(text, "-") {
				text = text[1:]
			} else {
				text = "-" + text
			}
		}
		return &ast.Literal{Kind: "Literal", Type: lit.Type, Text: text, Loc: p.loc(first)}
	}
	return &ast.ArithmeticUnary{Kind: "ArithmeticUnary", Op: op, Operand: operand, Loc: p.loc(first)}
}

// primaryExpr parses a primary term followed by any number of inline
// casts, which apply left to right.
func (p *parser) primaryExpr() ast.Expr {
	first := p.peek().Pos
	return p.casts(p.primaryTerm(), first)
}

func (p *parser) casts(e ast.Expr, first int) ast.Expr {
	for p.accept(lexer.Cast) {
		typ := p.expect(lexer.Identifier)
		e = &ast.InlineCast{Kind: "InlineCast", Expr: e, Type: strings.ToLower(typ.Text), Loc: p.loc(first)}
	}
	return e
}

func (p *parser) primaryTerm() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case lexer.LParen:
		p.next()
		e := p.booleanExpr(0)
		p.expect(lexer.RParen)
		return e
	case lexer.Identifier:
		if p.peekN(1).Kind == lexer.LParen {
			return p.functionCall()
		}
		return p.qualifiedName()
	case lexer.QuotedIdentifier:
		return p.qualifiedName()
	case lexer.Param, lexer.NamedParam:
		if p.peekN(1).Kind == lexer.Dot {
			return p.qualifiedName()
		}
		return p.param()
	case lexer.Null, lexer.True, lexer.False, lexer.Integer, lexer.Decimal,
		lexer.QuotedString, lexer.LBracket:
		return p.constant()
	}
	p.mismatch(lexer.LParen, lexer.LBracket, lexer.False, lexer.Null, lexer.True, lexer.Param,
		lexer.NamedParam, lexer.Decimal, lexer.Integer, lexer.QuotedString, lexer.Identifier,
		lexer.QuotedIdentifier)
	return nil
}

func (p *parser) functionCall() ast.Expr {
	tok := p.next()
	call := &ast.FunctionCall{Kind: "FunctionCall", Name: tok.Text}
	p.expect(lexer.LParen)
	switch {
	case p.accept(lexer.Asterisk):
		call.Star = true
	case !p.at(lexer.RParen):
		call.Args = append(call.Args, p.booleanExpr(0))
		for p.accept(lexer.Comma) {
			call.Args = append(call.Args, p.booleanExpr(0))
		}
	}
	p.expect(lexer.RParen)
	call.Loc = p.loc(tok.Pos)
	return call
}

func (p *parser) qualifiedName() *ast.QualifiedName {
	first := p.peek().Pos
	q := &ast.QualifiedName{Kind: "QualifiedName", Parts: []ast.NamePart{p.namePart()}}
	for p.at(lexer.Dot) {
		p.next()
		q.Parts = append(q.Parts, p.namePart())
	}
	q.Loc = p.loc(first)
	return q
}

func (p *parser) namePart() ast.NamePart {
	switch tok := p.peek(); tok.Kind {
	case lexer.Identifier:
		p.next()
		return ast.NamePart{Name: tok.Text}
	case lexer.QuotedIdentifier:
		p.next()
		return ast.NamePart{Name: unquoteIdentifier(tok.Text)}
	case lexer.Param, lexer.NamedParam:
		return ast.NamePart{Param: p.param()}
	}
	p.mismatch(lexer.Identifier, lexer.QuotedIdentifier)
	return ast.NamePart{}
}

func (p *parser) param() *ast.Param {
	if !p.at(lexer.Param, lexer.NamedParam) {
		p.mismatch(lexer.Param, lexer.NamedParam)
	}
	tok := p.next()
	param := &ast.Param{Kind: "Param", Loc: ast.NewLoc(tok.Pos, tok.End)}
	if tok.Kind == lexer.NamedParam {
		name := tok.Text[1:]
		if n, err := strconv.Atoi(name); err == nil {
			if n < 1 {
				p.fail("positional parameter must be at least 1: "+tok.Text, tok)
			}
			param.Position = n
		} else {
			param.Name = name
		}
	}
	return param
}

// constant parses a literal, a parameter, a qualified integer, or an
// array literal.
func (p *parser) constant() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Null:
		p.next()
		return p.literal("null", "null", tok)
	case lexer.True, lexer.False:
		p.next()
		return p.literal("boolean", strings.ToLower(tok.Text), tok)
	case lexer.Decimal:
		p.next()
		return p.literal("decimal", tok.Text, tok)
	case lexer.Integer:
		p.next()
		lit := p.literal("integer", tok.Text, tok)
		if unit := p.peek(); unit.Kind == lexer.Identifier {
			p.next()
			return &ast.QualifiedInteger{Kind: "QualifiedInteger", Value: lit, Unit: strings.ToLower(unit.Text), Loc: p.loc(tok.Pos)}
		}
		return lit
	case lexer.QuotedString:
		p.next()
		return p.literal("string", unquoteString(tok.Text), tok)
	case lexer.Param, lexer.NamedParam:
		return p.param()
	case lexer.Minus, lexer.Plus:
		return p.signedNumber()
	case lexer.LBracket:
		return p.arrayLiteral()
	}
	p.mismatch(lexer.Null, lexer.True, lexer.False, lexer.Integer, lexer.Decimal, lexer.QuotedString, lexer.Param, lexer.LBracket)
	return nil
}

func (p *parser) literal(typ, text string, tok lexer.Token) *ast.Literal {
	return &ast.Literal{Kind: "Literal", Type: typ, Text: text, Loc: ast.NewLoc(tok.Pos, tok.End)}
}

func isNumber(k lexer.Kind) bool {
	return k == lexer.Integer || k == lexer.Decimal
}

// signedConstant parses a signed number, which may be a qualified
// integer such as -1 day.
func (p *parser) signedConstant() ast.Expr {
	lit := p.signedNumber()
	if unit := p.peek(); lit.Type == "integer" && unit.Kind == lexer.Identifier {
		p.next()
		return &ast.QualifiedInteger{Kind: "QualifiedInteger", Value: lit, Unit: strings.ToLower(unit.Text), Loc: p.loc(lit.Loc.First)}
	}
	return lit
}

func (p *parser) signedNumber() *ast.Literal {
	first := p.peek().Pos
	neg := false
	if p.at(lexer.Plus, lexer.Minus) {
		neg = p.next().Kind == lexer.Minus
	}
	tok := p.peek()
	var typ string
	switch tok.Kind {
	case lexer.Integer:
		typ = "integer"
	case lexer.Decimal:
		typ = "decimal"
	default:
		p.mismatch(lexer.Integer, lexer.Decimal)
	}
	p.next()
	text := tok.Text
	if neg {
		text = "-" + text
	}
	return &ast.Literal{Kind: "Literal", Type: typ, Text: text, Loc: p.loc(first)}
}

// arrayLiteral parses a bracketed list whose elements are all numbers,
// all booleans, or all strings.  Each family is tried in turn.
func (p *parser) arrayLiteral() ast.Expr {
	first := p.next().Pos
	var elems []*ast.Literal
	families := []func() *ast.Literal{
		p.signedNumber,
		p.booleanValue,
		p.stringValue,
	}
	for _, elem := range families {
		if p.speculate(func() {
			elems = []*ast.Literal{elem()}
			for p.accept(lexer.Comma) {
				elems = append(elems, elem())
			}
			p.expect(lexer.RBracket)
		}) {
			return &ast.ArrayLiteral{Kind: "ArrayLiteral", Elems: elems, Loc: p.loc(first)}
		}
	}
	// No family matched.  Parse again as the family of the first element
	// so the error lands on the offending token.
	var elem func() *ast.Literal
	switch p.peek().Kind {
	case lexer.True, lexer.False:
		elem = p.booleanValue
	case lexer.QuotedString:
		elem = p.stringValue
	case lexer.Integer, lexer.Decimal, lexer.Plus, lexer.Minus:
		elem = p.signedNumber
	default:
		p.mismatch(lexer.True, lexer.False, lexer.Integer, lexer.Decimal, lexer.QuotedString, lexer.Minus)
	}
	elem()
	for p.accept(lexer.Comma) {
		elem()
	}
	p.expect(lexer.RBracket)
	return nil
}

func (p *parser) booleanValue() *ast.Literal {
	tok := p.peek()
	if !p.at(lexer.True, lexer.False) {
		p.mismatch(lexer.True, lexer.False)
	}
	p.next()
	return p.literal("boolean", strings.ToLower(tok.Text), tok)
}

func (p *parser) stringValue() *ast.Literal {
	tok := p.expect(lexer.QuotedString)
	return p.literal("string", unquoteString(tok.Text), tok)
}

func (p *parser) stringConstant() string {
	return unquoteString(p.expect(lexer.QuotedString).Text)
}

func unquoteString(s string) string {
	if strings.HasPrefix(s, `"""`) && len(s) >= 6 {
		return s[3 : len(s)-3]
	}
	if len(s) < 2 {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '"', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func unquoteIdentifier(s string) string {
	if len(s) < 2 {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
}
