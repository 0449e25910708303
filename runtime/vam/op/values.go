package op

import (
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

// Assignment names the result of an expression.
type Assignment struct {
	Name string
	Expr expr.Evaluator
}

// NewValues returns a puller yielding one page built from rows, where
// each element of a row is nil, a single value, or a []any multi-value.
func NewValues(schema vector.Schema, rows [][]any) vector.Puller {
	builders := make([]vector.AnyBuilder, 0, len(schema))
	for _, c := range schema {
		builders = append(builders, vector.NewBuilderFor(c.Type, len(rows)))
	}
	for _, row := range rows {
		for k, v := range row {
			appendAny(builders[k], v)
		}
	}
	blocks := make([]vector.Block, 0, len(builders))
	for _, b := range builders {
		blocks = append(blocks, b.Build())
	}
	return vector.NewPuller(vector.NewPage(schema, blocks, len(rows)))
}

func appendAny(b vector.AnyBuilder, v any) {
	switch v := v.(type) {
	case nil:
		b.AppendNull()
	case []any:
		if len(v) == 0 {
			b.AppendNull()
			return
		}
		b.BeginPositionEntry()
		for _, elem := range v {
			b.AppendAny(elem)
		}
		b.EndPositionEntry()
	default:
		b.AppendAny(v)
	}
}

// Row evaluates its assignments over a single empty row.  Each assignment
// sees the columns assigned before it.
type Row struct {
	assignments []Assignment
	done        bool
}

var _ vector.Puller = (*Row)(nil)

func NewRow(assignments []Assignment) *Row {
	return &Row{assignments: assignments}
}

func (r *Row) Pull(done bool) (*vector.Page, error) {
	if done || r.done {
		r.done = true
		return nil, nil
	}
	r.done = true
	page := vector.NewPage(nil, nil, 1)
	for _, a := range r.assignments {
		page = page.With(vector.Column{Name: a.Name, Type: a.Expr.Type()}, a.Expr.Eval(page))
	}
	return page, nil
}
