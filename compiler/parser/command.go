package parser

import (
	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/compiler/lexer"
)

var sourceCommands = []lexer.Kind{
	lexer.Explain, lexer.From, lexer.Meta, lexer.Metrics, lexer.Row, lexer.Show,
}

var processingCommands = []lexer.Kind{
	lexer.Dissect, lexer.Drop, lexer.Enrich, lexer.Eval, lexer.Grok,
	lexer.InlineStats, lexer.Keep, lexer.Limit, lexer.Lookup, lexer.MvExpand,
	lexer.Rename, lexer.Sort, lexer.Stats, lexer.Where,
}

func (p *parser) sourceCommand() ast.Command {
	tok := p.peek()
	switch tok.Kind {
	case lexer.From:
		return p.from()
	case lexer.Row:
		p.next()
		return &ast.Row{Kind: "Row", Fields: p.fields(), Loc: p.loc(tok.Pos)}
	case lexer.Show:
		p.next()
		p.expectWord("info")
		return &ast.ShowInfo{Kind: "ShowInfo", Loc: p.loc(tok.Pos)}
	case lexer.Meta:
		p.next()
		p.expectWord("functions")
		return &ast.MetaFunctions{Kind: "MetaFunctions", Loc: p.loc(tok.Pos)}
	case lexer.Explain:
		p.next()
		p.expect(lexer.LBracket)
		q := p.query(true)
		p.expect(lexer.RBracket)
		return &ast.Explain{Kind: "Explain", Query: q, Loc: p.loc(tok.Pos)}
	case lexer.Metrics:
		return p.metrics()
	}
	p.mismatch(sourceCommands...)
	return nil
}

func (p *parser) processingCommand() ast.Command {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Where:
		p.next()
		return &ast.Where{Kind: "Where", Expr: p.booleanExpr(0), Loc: p.loc(tok.Pos)}
	case lexer.Eval:
		p.next()
		return &ast.Eval{Kind: "Eval", Fields: p.fields(), Loc: p.loc(tok.Pos)}
	case lexer.Stats:
		p.next()
		var aggs, groups []*ast.Field
		if !p.at(lexer.By, lexer.Pipe, lexer.EOF, lexer.RBracket) {
			aggs = p.fields()
		}
		if p.accept(lexer.By) {
			groups = p.fields()
		}
		return &ast.Stats{Kind: "Stats", Aggregates: aggs, Groupings: groups, Loc: p.loc(tok.Pos)}
	case lexer.InlineStats:
		p.next()
		aggs := p.fields()
		var groups []*ast.Field
		if p.accept(lexer.By) {
			groups = p.fields()
		}
		return &ast.InlineStats{Kind: "InlineStats", Aggregates: aggs, Groupings: groups, Loc: p.loc(tok.Pos)}
	case lexer.Sort:
		p.next()
		orders := []*ast.Order{p.order()}
		for p.accept(lexer.Comma) {
			orders = append(orders, p.order())
		}
		return &ast.Sort{Kind: "Sort", Orders: orders, Loc: p.loc(tok.Pos)}
	case lexer.Limit:
		p.next()
		var count ast.Expr
		switch p.peek().Kind {
		case lexer.Integer:
			count = p.constant()
		case lexer.Param, lexer.NamedParam:
			count = p.param()
		default:
			p.mismatch(lexer.Integer)
		}
		return &ast.Limit{Kind: "Limit", Count: count, Loc: p.loc(tok.Pos)}
	case lexer.Keep:
		p.next()
		return &ast.Keep{Kind: "Keep", Patterns: p.namePatterns(), Loc: p.loc(tok.Pos)}
	case lexer.Drop:
		p.next()
		return &ast.Drop{Kind: "Drop", Patterns: p.namePatterns(), Loc: p.loc(tok.Pos)}
	case lexer.Rename:
		p.next()
		clauses := []*ast.RenameClause{p.renameClause()}
		for p.accept(lexer.Comma) {
			clauses = append(clauses, p.renameClause())
		}
		return &ast.Rename{Kind: "Rename", Clauses: clauses, Loc: p.loc(tok.Pos)}
	case lexer.Dissect:
		p.next()
		expr := p.primaryExpr()
		pattern := p.stringConstant()
		var opts []*ast.CommandOption
		if p.at(lexer.Identifier) {
			opts = append(opts, p.commandOption())
			for p.accept(lexer.Comma) {
				opts = append(opts, p.commandOption())
			}
		}
		return &ast.Dissect{Kind: "Dissect", Expr: expr, Pattern: pattern, Options: opts, Loc: p.loc(tok.Pos)}
	case lexer.Grok:
		p.next()
		expr := p.primaryExpr()
		pattern := p.stringConstant()
		return &ast.Grok{Kind: "Grok", Expr: expr, Pattern: pattern, Loc: p.loc(tok.Pos)}
	case lexer.Enrich:
		return p.enrich()
	case lexer.MvExpand:
		p.next()
		return &ast.MvExpand{Kind: "MvExpand", Field: p.qualifiedName(), Loc: p.loc(tok.Pos)}
	case lexer.Lookup:
		p.next()
		table := p.sourceName().Name
		p.expectWord("on")
		return &ast.Lookup{Kind: "Lookup", Table: table, On: p.namePatterns(), Loc: p.loc(tok.Pos)}
	}
	p.mismatch(processingCommands...)
	return nil
}

func (p *parser) from() ast.Command {
	tok := p.next()
	sources := p.sources()
	var meta []*ast.Source
	switch {
	case p.at(lexer.Metadata):
		meta = p.metadata()
	case p.at(lexer.LBracket) && p.peekN(1).Kind == lexer.Metadata:
		// Deprecated bracketed form.
		p.next()
		meta = p.metadata()
		p.expect(lexer.RBracket)
	}
	return &ast.From{Kind: "From", Sources: sources, Metadata: meta, Loc: p.loc(tok.Pos)}
}

func (p *parser) metadata() []*ast.Source {
	p.expect(lexer.Metadata)
	return p.sources()
}

func (p *parser) metrics() ast.Command {
	tok := p.next()
	m := &ast.Metrics{Kind: "Metrics", Sources: p.sources()}
	if !p.at(lexer.By, lexer.Pipe, lexer.EOF, lexer.RBracket) {
		m.Aggregates = p.fields()
	}
	if p.accept(lexer.By) {
		m.Groupings = p.fields()
	}
	m.Loc = p.loc(tok.Pos)
	return m
}

func (p *parser) sources() []*ast.Source {
	sources := []*ast.Source{p.sourceName()}
	for p.accept(lexer.Comma) {
		sources = append(sources, p.sourceName())
	}
	return sources
}

func (p *parser) sourceName() *ast.Source {
	tok := p.peek()
	var name string
	switch tok.Kind {
	case lexer.SourceName, lexer.Identifier:
		name = tok.Text
	case lexer.QuotedString:
		name = unquoteString(tok.Text)
	default:
		p.mismatch(lexer.SourceName, lexer.QuotedString)
	}
	p.next()
	return &ast.Source{Kind: "Source", Name: name, Loc: p.loc(tok.Pos)}
}

func (p *parser) order() *ast.Order {
	first := p.peek().Pos
	o := &ast.Order{Kind: "Order", Expr: p.booleanExpr(0)}
	switch {
	case p.accept(lexer.Asc):
		o.Direction = "asc"
	case p.accept(lexer.Desc):
		o.Direction = "desc"
	}
	if p.accept(lexer.Nulls) {
		switch {
		case p.accept(lexer.First):
			o.Nulls = "first"
		case p.accept(lexer.Last):
			o.Nulls = "last"
		default:
			p.mismatch(lexer.First, lexer.Last)
		}
	}
	o.Loc = p.loc(first)
	return o
}

func (p *parser) renameClause() *ast.RenameClause {
	first := p.peek().Pos
	old := p.namePattern()
	p.expectWord("as")
	return &ast.RenameClause{Kind: "RenameClause", Old: old, New: p.namePattern(), Loc: p.loc(first)}
}

func (p *parser) commandOption() *ast.CommandOption {
	tok := p.expect(lexer.Identifier)
	p.expect(lexer.Assign)
	return &ast.CommandOption{Kind: "CommandOption", Name: tok.Text, Value: p.constant(), Loc: p.loc(tok.Pos)}
}

func (p *parser) enrich() ast.Command {
	tok := p.next()
	e := &ast.Enrich{Kind: "Enrich", Policy: p.sourceName().Name}
	if p.peek().Is("on") {
		p.next()
		e.On = p.namePattern()
	}
	if p.peek().Is("with") {
		p.next()
		e.With = append(e.With, p.enrichClause())
		for p.accept(lexer.Comma) {
			e.With = append(e.With, p.enrichClause())
		}
	}
	e.Loc = p.loc(tok.Pos)
	return e
}

func (p *parser) enrichClause() *ast.EnrichClause {
	first := p.peek().Pos
	c := &ast.EnrichClause{Kind: "EnrichClause"}
	var newName *ast.NamePattern
	if p.speculate(func() {
		newName = p.namePattern()
		p.expect(lexer.Assign)
	}) {
		c.NewName = newName
	}
	c.Name = p.namePattern()
	c.Loc = p.loc(first)
	return c
}

func (p *parser) fields() []*ast.Field {
	fields := []*ast.Field{p.field()}
	for p.accept(lexer.Comma) {
		fields = append(fields, p.field())
	}
	return fields
}

// field parses "[name =] expr".  Whether a leading name is an assignment
// target or the start of the expression is decided by trying the
// assignment first.
func (p *parser) field() *ast.Field {
	first := p.peek().Pos
	f := &ast.Field{Kind: "Field"}
	var name *ast.QualifiedName
	if p.speculate(func() {
		name = p.qualifiedName()
		p.expect(lexer.Assign)
	}) {
		f.Name = name
	}
	f.Expr = p.booleanExpr(0)
	f.Loc = p.loc(first)
	return f
}

func (p *parser) namePatterns() []*ast.NamePattern {
	patterns := []*ast.NamePattern{p.namePattern()}
	for p.accept(lexer.Comma) {
		patterns = append(patterns, p.namePattern())
	}
	return patterns
}

// namePattern assembles a pattern from adjacent identifier, "*", and "."
// tokens, e.g., "emp_*.name".
func (p *parser) namePattern() *ast.NamePattern {
	first := p.peek().Pos
	if p.at(lexer.Param, lexer.NamedParam) {
		param := p.param()
		return &ast.NamePattern{Kind: "NamePattern", Pattern: param.Marker(), Param: param, Loc: param.Loc}
	}
	var b []byte
	end := -1
	for {
		tok := p.peek()
		if end >= 0 && tok.Pos != end {
			break
		}
		switch tok.Kind {
		case lexer.Identifier, lexer.Asterisk:
			b = append(b, tok.Text...)
		case lexer.QuotedIdentifier:
			b = append(b, unquoteIdentifier(tok.Text)...)
		case lexer.Dot:
			if end < 0 {
				p.mismatch(lexer.Identifier, lexer.QuotedIdentifier)
			}
			b = append(b, '.')
		default:
			if end < 0 {
				p.mismatch(lexer.Identifier, lexer.QuotedIdentifier)
			}
			return p.finishPattern(b, first)
		}
		end = p.next().End
	}
	return p.finishPattern(b, first)
}

func (p *parser) finishPattern(b []byte, first int) *ast.NamePattern {
	if b[len(b)-1] == '.' {
		p.fail("name pattern may not end in '.'", p.toks[p.pos-1])
	}
	return &ast.NamePattern{Kind: "NamePattern", Pattern: string(b), Loc: p.loc(first)}
}
