// Package sfmt formats syntax trees as canonical query text.  Binary
// expressions are fully parenthesized so the output shows how the query
// was grouped, and formatting a parse of the output yields the same text.
package sfmt

import (
	"strings"

	"github.com/brimdata/esql/compiler/ast"
)

func Query(q *ast.Query) string {
	c := &canon{sep: "\n| "}
	c.query(q)
	return c.String()
}

func Expr(e ast.Expr) string {
	c := &canon{}
	c.expr(e)
	return c.String()
}

type canon struct {
	formatter
	sep string
}

func (c *canon) query(q *ast.Query) {
	if q.Source != nil {
		c.command(q.Source)
	}
	for _, cmd := range q.Commands {
		c.write(c.sep)
		c.command(cmd)
	}
}

func (c *canon) command(cmd ast.Command) {
	switch cmd := cmd.(type) {
	case *ast.From:
		c.write("FROM ")
		c.sources(cmd.Sources)
		if len(cmd.Metadata) > 0 {
			c.write(" METADATA ")
			c.sources(cmd.Metadata)
		}
	case *ast.Row:
		c.write("ROW ")
		c.fields(cmd.Fields)
	case *ast.ShowInfo:
		c.write("SHOW INFO")
	case *ast.MetaFunctions:
		c.write("META FUNCTIONS")
	case *ast.Explain:
		c.write("EXPLAIN [")
		nested := &canon{sep: " | "}
		nested.query(cmd.Query)
		c.write(nested.String())
		c.write("]")
	case *ast.Metrics:
		c.write("METRICS ")
		c.sources(cmd.Sources)
		if len(cmd.Aggregates) > 0 {
			c.write(" ")
			c.fields(cmd.Aggregates)
		}
		c.groupings(cmd.Groupings)
	case *ast.Where:
		c.write("WHERE ")
		c.expr(cmd.Expr)
	case *ast.Eval:
		c.write("EVAL ")
		c.fields(cmd.Fields)
	case *ast.Stats:
		c.write("STATS")
		if len(cmd.Aggregates) > 0 {
			c.write(" ")
			c.fields(cmd.Aggregates)
		}
		c.groupings(cmd.Groupings)
	case *ast.InlineStats:
		c.write("INLINESTATS ")
		c.fields(cmd.Aggregates)
		c.groupings(cmd.Groupings)
	case *ast.Sort:
		c.write("SORT ")
		for k, o := range cmd.Orders {
			if k > 0 {
				c.write(", ")
			}
			c.expr(o.Expr)
			if o.Direction != "" {
				c.write(" " + strings.ToUpper(o.Direction))
			}
			if o.Nulls != "" {
				c.write(" NULLS " + strings.ToUpper(o.Nulls))
			}
		}
	case *ast.Limit:
		c.write("LIMIT ")
		c.expr(cmd.Count)
	case *ast.Keep:
		c.write("KEEP ")
		c.patterns(cmd.Patterns)
	case *ast.Drop:
		c.write("DROP ")
		c.patterns(cmd.Patterns)
	case *ast.Rename:
		c.write("RENAME ")
		for k, r := range cmd.Clauses {
			if k > 0 {
				c.write(", ")
			}
			c.pattern(r.Old)
			c.write(" AS ")
			c.pattern(r.New)
		}
	case *ast.Dissect:
		c.write("DISSECT ")
		c.expr(cmd.Expr)
		c.write(" " + quoteString(cmd.Pattern))
		for k, o := range cmd.Options {
			if k > 0 {
				c.write(",")
			}
			c.write(" %s = ", o.Name)
			c.expr(o.Value)
		}
	case *ast.Grok:
		c.write("GROK ")
		c.expr(cmd.Expr)
		c.write(" " + quoteString(cmd.Pattern))
	case *ast.Enrich:
		c.write("ENRICH %s", cmd.Policy)
		if cmd.On != nil {
			c.write(" ON ")
			c.pattern(cmd.On)
		}
		for k, w := range cmd.With {
			if k == 0 {
				c.write(" WITH ")
			} else {
				c.write(", ")
			}
			if w.NewName != nil {
				c.pattern(w.NewName)
				c.write(" = ")
			}
			c.pattern(w.Name)
		}
	case *ast.MvExpand:
		c.write("MV_EXPAND ")
		c.expr(cmd.Field)
	case *ast.Lookup:
		c.write("LOOKUP %s ON ", cmd.Table)
		c.patterns(cmd.On)
	default:
		c.write("<unknown command %T>", cmd)
	}
}

func (c *canon) sources(sources []*ast.Source) {
	for k, s := range sources {
		if k > 0 {
			c.write(", ")
		}
		c.write(s.Name)
	}
}

func (c *canon) fields(fields []*ast.Field) {
	for k, f := range fields {
		if k > 0 {
			c.write(", ")
		}
		if f.Name != nil {
			c.expr(f.Name)
			c.write(" = ")
		}
		c.expr(f.Expr)
	}
}

func (c *canon) groupings(fields []*ast.Field) {
	if len(fields) > 0 {
		c.write(" BY ")
		c.fields(fields)
	}
}

func (c *canon) patterns(patterns []*ast.NamePattern) {
	for k, p := range patterns {
		if k > 0 {
			c.write(", ")
		}
		c.pattern(p)
	}
}

func (c *canon) pattern(p *ast.NamePattern) {
	if p.Param != nil {
		c.write(p.Param.Marker())
		return
	}
	for k, part := range strings.Split(p.Pattern, ".") {
		if k > 0 {
			c.write(".")
		}
		if isIdentifier(strings.ReplaceAll(part, "*", "_")) && !isKeyword(part) {
			c.write(part)
		} else {
			c.write(quoteIdentifier(part))
		}
	}
}
