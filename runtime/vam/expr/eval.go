// Package expr implements the evaluators that compute scalar expressions
// over a page of rows.  Each evaluator produces one block with a position
// for every row of its input page.
package expr

import (
	"errors"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

type Evaluator interface {
	Eval(*vector.Page) vector.Block
	Type() esql.DataType
}

// Function is a scalar function applied to the evaluated arguments of a
// call.  n is the number of rows.
type Function interface {
	Call(n int, args []vector.Block) vector.Block
}

var (
	ErrMultiValue   = errors.New("single-value function encountered multi-value")
	ErrDivideByZero = errors.New("/ by zero")
)

// Single returns the value at position pos of b when the position holds
// exactly one value.  A multi-value is reported to w.
func Single(b vector.Block, pos int, w *runtime.Warner) (any, bool) {
	switch b.ValueCount(pos) {
	case 0:
		return nil, false
	case 1:
		return b.Any(b.FirstValueIndex(pos)), true
	}
	w.Warn(ErrMultiValue)
	return nil, false
}

// Singles is Single applied to every block at pos.  It returns false if
// any of them is null or multi-valued.
func Singles(blocks []vector.Block, pos int, w *runtime.Warner, vals []any) ([]any, bool) {
	vals = vals[:0]
	ok := true
	for _, b := range blocks {
		v, single := Single(b, pos, w)
		ok = ok && single
		vals = append(vals, v)
	}
	return vals, ok
}
