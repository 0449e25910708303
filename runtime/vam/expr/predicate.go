package expr

import (
	"fmt"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

// IsNull evaluates IS NULL and IS NOT NULL.  Its result is never null.
type IsNull struct {
	expr Evaluator
	not  bool
}

func NewIsNull(e Evaluator, not bool) *IsNull {
	return &IsNull{e, not}
}

func (*IsNull) Type() esql.DataType {
	return esql.TypeBoolean
}

func (i *IsNull) Eval(page *vector.Page) vector.Block {
	in := i.expr.Eval(page)
	out := vector.NewBuilder[bool](esql.TypeBoolean, page.Len())
	for pos := range page.Len() {
		out.Append(in.IsNull(pos) != i.not)
	}
	return out.Build()
}

// In evaluates [NOT] IN.  The result is null when the tested value is null
// or when no element matches and some element is null.
type In struct {
	expr   Evaluator
	list   []Evaluator
	typ    esql.DataType
	not    bool
	warner *runtime.Warner
}

func NewIn(e Evaluator, list []Evaluator, not bool, w *runtime.Warner) (*In, error) {
	typ := e.Type()
	for _, elem := range list {
		t, ok := esql.Widen(typ, elem.Type())
		if !ok {
			return nil, fmt.Errorf("IN list element of type [%s] is incompatible with [%s]", elem.Type(), e.Type())
		}
		typ = t
	}
	return &In{expr: e, list: list, typ: typ, not: not, warner: w}, nil
}

func (*In) Type() esql.DataType {
	return esql.TypeBoolean
}

func (i *In) Eval(page *vector.Page) vector.Block {
	in := i.expr.Eval(page)
	list := make([]vector.Block, 0, len(i.list))
	for _, e := range i.list {
		list = append(list, e.Eval(page))
	}
	out := vector.NewBuilder[bool](esql.TypeBoolean, page.Len())
	for pos := range page.Len() {
		v, ok := Single(in, pos, i.warner)
		if !ok {
			out.AppendNull()
			continue
		}
		var match, sawNull bool
		for _, b := range list {
			elem, ok := Single(b, pos, i.warner)
			if !ok {
				sawNull = true
				continue
			}
			if esql.Compare(i.typ, v, elem) == 0 {
				match = true
				break
			}
		}
		switch {
		case match:
			out.Append(!i.not)
		case sawNull:
			out.AppendNull()
		default:
			out.Append(i.not)
		}
	}
	return out.Build()
}
