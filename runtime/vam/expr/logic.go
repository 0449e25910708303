package expr

import (
	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

// And and Or implement three-valued logic: false AND null is false and
// true OR null is true.  Any other combination involving null is null.
type And struct {
	lhs    Evaluator
	rhs    Evaluator
	warner *runtime.Warner
}

func NewLogicalAnd(lhs, rhs Evaluator, w *runtime.Warner) *And {
	return &And{lhs, rhs, w}
}

func (*And) Type() esql.DataType {
	return esql.TypeBoolean
}

func (a *And) Eval(page *vector.Page) vector.Block {
	lhs, rhs := a.lhs.Eval(page), a.rhs.Eval(page)
	out := vector.NewBuilder[bool](esql.TypeBoolean, page.Len())
	for pos := range page.Len() {
		l, lok := boolAt(lhs, pos, a.warner)
		r, rok := boolAt(rhs, pos, a.warner)
		switch {
		case lok && !l, rok && !r:
			out.Append(false)
		case lok && rok:
			out.Append(true)
		default:
			out.AppendNull()
		}
	}
	return out.Build()
}

type Or struct {
	lhs    Evaluator
	rhs    Evaluator
	warner *runtime.Warner
}

func NewLogicalOr(lhs, rhs Evaluator, w *runtime.Warner) *Or {
	return &Or{lhs, rhs, w}
}

func (*Or) Type() esql.DataType {
	return esql.TypeBoolean
}

func (o *Or) Eval(page *vector.Page) vector.Block {
	lhs, rhs := o.lhs.Eval(page), o.rhs.Eval(page)
	out := vector.NewBuilder[bool](esql.TypeBoolean, page.Len())
	for pos := range page.Len() {
		l, lok := boolAt(lhs, pos, o.warner)
		r, rok := boolAt(rhs, pos, o.warner)
		switch {
		case lok && l, rok && r:
			out.Append(true)
		case lok && rok:
			out.Append(false)
		default:
			out.AppendNull()
		}
	}
	return out.Build()
}

type Not struct {
	expr   Evaluator
	warner *runtime.Warner
}

var _ Evaluator = (*Not)(nil)

func NewLogicalNot(e Evaluator, w *runtime.Warner) *Not {
	return &Not{e, w}
}

func (*Not) Type() esql.DataType {
	return esql.TypeBoolean
}

func (n *Not) Eval(page *vector.Page) vector.Block {
	in := n.expr.Eval(page)
	out := vector.NewBuilder[bool](esql.TypeBoolean, page.Len())
	for pos := range page.Len() {
		if v, ok := boolAt(in, pos, n.warner); ok {
			out.Append(!v)
		} else {
			out.AppendNull()
		}
	}
	return out.Build()
}

func boolAt(b vector.Block, pos int, w *runtime.Warner) (bool, bool) {
	v, ok := Single(b, pos, w)
	if !ok {
		return false, false
	}
	t, ok := v.(bool)
	return t, ok
}
