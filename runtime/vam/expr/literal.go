package expr

import (
	"github.com/brimdata/esql"
	"github.com/brimdata/esql/vector"
)

// Literal is a constant.  It holds no value for null, one value for a
// scalar, or several for an array literal.
type Literal struct {
	typ  esql.DataType
	vals []any
}

var _ Evaluator = (*Literal)(nil)

func NewLiteral(val esql.Value) *Literal {
	if val.IsNull() {
		return &Literal{typ: val.Type}
	}
	return &Literal{typ: val.Type, vals: []any{val.Any}}
}

func NewArrayLiteral(typ esql.DataType, vals []any) *Literal {
	return &Literal{typ: typ, vals: vals}
}

func (l *Literal) Type() esql.DataType {
	return l.typ
}

// Value returns the constant if it is null or a single value.
func (l *Literal) Value() (esql.Value, bool) {
	switch len(l.vals) {
	case 0:
		return esql.Value{Type: l.typ}, true
	case 1:
		return esql.Value{Type: l.typ, Any: l.vals[0]}, true
	}
	return esql.Null, false
}

func (l *Literal) Values() []any {
	return l.vals
}

func (l *Literal) Eval(page *vector.Page) vector.Block {
	n := page.Len()
	if len(l.vals) == 0 {
		return vector.NewNull(n)
	}
	b := vector.NewBuilderFor(l.typ, n)
	for range n {
		if len(l.vals) == 1 {
			b.AppendAny(l.vals[0])
			continue
		}
		b.BeginPositionEntry()
		for _, v := range l.vals {
			b.AppendAny(v)
		}
		b.EndPositionEntry()
	}
	return b.Build()
}

// Field references a column of the input page by name.
type Field struct {
	name string
	typ  esql.DataType
}

var _ Evaluator = (*Field)(nil)

func NewField(name string, typ esql.DataType) *Field {
	return &Field{name: name, typ: typ}
}

func (f *Field) Name() string {
	return f.name
}

func (f *Field) Type() esql.DataType {
	return f.typ
}

func (f *Field) Eval(page *vector.Page) vector.Block {
	if b := page.Block(f.name); b != nil {
		return b
	}
	return vector.NewNull(page.Len())
}
