package expr

import (
	"fmt"
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

// Compare evaluates the comparison operators == != < <= > >= and =~.
type Compare struct {
	op     string
	lhs    Evaluator
	rhs    Evaluator
	typ    esql.DataType
	warner *runtime.Warner
}

var _ Evaluator = (*Compare)(nil)

func NewCompare(op string, lhs, rhs Evaluator, w *runtime.Warner) (*Compare, error) {
	lt, rt := lhs.Type(), rhs.Type()
	typ, ok := esql.Widen(lt, rt)
	switch {
	case !ok || typ == esql.TypeUnsupported:
		return nil, fmt.Errorf("first argument of [%s] is [%s] so second argument must also be [%s] but was [%s]", op, lt, lt, rt)
	case op == "=~" && !typ.IsString() && typ != esql.TypeNull:
		return nil, fmt.Errorf("arguments of [=~] must be strings, found [%s]", typ)
	case typ == esql.TypeBoolean && op != "==" && op != "!=":
		return nil, fmt.Errorf("[%s] is not supported for [boolean] arguments", op)
	case typ.IsTemporalAmount():
		return nil, fmt.Errorf("[%s] is not supported for [%s] arguments", op, typ)
	}
	return &Compare{op: op, lhs: lhs, rhs: rhs, typ: typ, warner: w}, nil
}

func (c *Compare) Type() esql.DataType {
	return esql.TypeBoolean
}

func (c *Compare) Eval(page *vector.Page) vector.Block {
	lhs, rhs := c.lhs.Eval(page), c.rhs.Eval(page)
	n := page.Len()
	out := vector.NewBuilder[bool](esql.TypeBoolean, n)
	for pos := range n {
		l, lok := Single(lhs, pos, c.warner)
		r, rok := Single(rhs, pos, c.warner)
		if !lok || !rok {
			out.AppendNull()
			continue
		}
		out.Append(c.compare(l, r))
	}
	return out.Build()
}

func (c *Compare) compare(l, r any) bool {
	if c.op == "=~" {
		return strings.EqualFold(l.(string), r.(string))
	}
	cmp := esql.Compare(c.typ, l, r)
	switch c.op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	panic(c.op)
}
