package sfmt

import (
	"strings"

	"github.com/brimdata/esql/compiler/ast"
)

func (c *canon) expr(e ast.Expr) {
	switch e := e.(type) {
	case nil:
		c.write("<missing>")
	case *ast.LogicalBinary:
		c.binary(e.LHS, strings.ToUpper(e.Op), e.RHS)
	case *ast.LogicalNot:
		c.write("NOT ")
		c.expr(e.Expr)
	case *ast.Comparison:
		c.binary(e.LHS, e.Op, e.RHS)
	case *ast.ArithmeticBinary:
		c.binary(e.LHS, e.Op, e.RHS)
	case *ast.ArithmeticUnary:
		c.write(e.Op)
		c.expr(e.Operand)
	case *ast.InlineCast:
		if lit, ok := e.Expr.(*ast.Literal); ok && strings.HasPrefix(lit.Text, "-") {
			c.write("(")
			c.expr(lit)
			c.write(")")
		} else {
			c.expr(e.Expr)
		}
		c.write("::" + e.Type)
	case *ast.FunctionCall:
		c.write(e.Name + "(")
		if e.Star {
			c.write("*")
		}
		c.exprs(e.Args)
		c.write(")")
	case *ast.InList:
		c.expr(e.Expr)
		if e.Not {
			c.write(" NOT")
		}
		c.write(" IN (")
		c.exprs(e.List)
		c.write(")")
	case *ast.IsNull:
		c.expr(e.Expr)
		if e.Not {
			c.write(" IS NOT NULL")
		} else {
			c.write(" IS NULL")
		}
	case *ast.RegexMatch:
		c.expr(e.Expr)
		if e.Not {
			c.write(" NOT")
		}
		c.write(" " + strings.ToUpper(e.Op) + " ")
		c.expr(e.Pattern)
	case *ast.Literal:
		c.literal(e)
	case *ast.QualifiedInteger:
		c.literal(e.Value)
		c.write(" " + e.Unit)
	case *ast.ArrayLiteral:
		c.write("[")
		for k, elem := range e.Elems {
			if k > 0 {
				c.write(", ")
			}
			c.literal(elem)
		}
		c.write("]")
	case *ast.Param:
		c.write(e.Marker())
	case *ast.QualifiedName:
		for k, part := range e.Parts {
			if k > 0 {
				c.write(".")
			}
			if part.Param != nil {
				c.write(part.Param.Marker())
			} else {
				c.write(quoteIdentifier(part.Name))
			}
		}
	case *ast.NamePattern:
		c.pattern(e)
	default:
		c.write("<unknown expr %T>", e)
	}
}

func (c *canon) binary(lhs ast.Expr, op string, rhs ast.Expr) {
	c.write("(")
	c.expr(lhs)
	c.write(" " + op + " ")
	c.expr(rhs)
	c.write(")")
}

func (c *canon) exprs(exprs []ast.Expr) {
	for k, e := range exprs {
		if k > 0 {
			c.write(", ")
		}
		c.expr(e)
	}
}

func (c *canon) literal(l *ast.Literal) {
	if l.Type == "string" {
		c.write(quoteString(l.Text))
		return
	}
	c.write(l.Text)
}
