package rungen

import (
	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

type paramStyle int

const (
	noStyle paramStyle = iota
	anonymousStyle
	positionalStyle
	namedStyle
)

func (s paramStyle) String() string {
	switch s {
	case anonymousStyle:
		return "anonymous"
	case positionalStyle:
		return "positional"
	case namedStyle:
		return "named"
	}
	return "none"
}

func styleOf(p *ast.Param) paramStyle {
	switch {
	case p.Name != "":
		return namedStyle
	case p.Position > 0:
		return positionalStyle
	}
	return anonymousStyle
}

// param resolves the request parameter a marker refers to.  A query uses
// one marker style throughout.  Anonymous markers take the parameters in
// order.
func (b *Builder) param(p *ast.Param) (params.Param, error) {
	style := styleOf(p)
	if b.style == noStyle {
		b.style = style
	} else if b.style != style {
		return params.Param{}, b.errorf(p, "Inconsistent parameter declaration, use one of positional, named or anonymous params but not a combination of [%s] and [%s]", b.style, style)
	}
	switch style {
	case anonymousStyle:
		b.anon++
		prm, ok := b.params.Positional(b.anon)
		if !ok {
			return params.Param{}, b.errorf(p, "Not enough actual parameters %d", b.params.Len())
		}
		return prm, nil
	case positionalStyle:
		prm, ok := b.params.Positional(p.Position)
		if !ok {
			if n := b.params.Len(); n > 0 {
				return params.Param{}, b.errorf(p, "No parameter is defined for position %d, did you mean any position between 1 and %d?", p.Position, n)
			}
			return params.Param{}, b.errorf(p, "No parameter is defined for position %d", p.Position)
		}
		return prm, nil
	}
	prm, ok := b.params.Lookup(p.Name)
	if !ok {
		var names []string
		if b.params != nil {
			for _, prm := range b.params.Params {
				names = append(names, prm.Name)
			}
		}
		return params.Param{}, b.errorf(p, "%s", didYouMean("Unknown query parameter ["+p.Name+"]", suggest(p.Name, names)))
	}
	return prm, nil
}

// paramExpr compiles a parameter in value position.  An identifier
// parameter refers to a column.
func (b *Builder) paramExpr(p *ast.Param, schema vector.Schema) (expr.Evaluator, error) {
	prm, err := b.param(p)
	if err != nil {
		return nil, err
	}
	switch {
	case prm.IsPattern:
		return nil, b.errorf(p, "Query parameter [%s] declared as a pattern, cannot be used as a value", p.Marker())
	case prm.IsField:
		return b.field(p, prm.Value.String(), schema)
	}
	return expr.NewLiteral(prm.Value), nil
}

// identParam resolves a parameter standing in for an identifier, or for
// a pattern if pattern is set.
func (b *Builder) identParam(p *ast.Param, pattern bool) (string, error) {
	prm, err := b.param(p)
	if err != nil {
		return "", err
	}
	switch {
	case prm.IsField:
	case prm.IsPattern && pattern:
	case prm.IsPattern:
		return "", b.errorf(p, "Query parameter [%s] declared as a pattern, cannot be used as an identifier", p.Marker())
	default:
		return "", b.errorf(p, "Query parameter [%s] declared as a constant, cannot be used as an identifier or pattern", p.Marker())
	}
	s, _ := prm.Value.Any.(string)
	if s == "" {
		return "", b.errorf(p, "Query parameter [%s] is empty", p.Marker())
	}
	return s, nil
}
