package expr

import (
	"fmt"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr/cast"
	"github.com/brimdata/esql/vector"
)

// Cast evaluates the inline cast operator.  Each value of a multi-value is
// converted separately.  Values that fail to convert are dropped with a
// warning.
type Cast struct {
	expr   Evaluator
	typ    esql.DataType
	fn     cast.Func
	warner *runtime.Warner
}

func NewCast(e Evaluator, typ esql.DataType, w *runtime.Warner) (*Cast, error) {
	fn, ok := cast.To(e.Type(), typ)
	if !ok {
		return nil, fmt.Errorf("cannot cast from [%s] to [%s]", e.Type(), typ)
	}
	return &Cast{expr: e, typ: typ, fn: fn, warner: w}, nil
}

func (c *Cast) Type() esql.DataType {
	return c.typ
}

func (c *Cast) Eval(page *vector.Page) vector.Block {
	in := c.expr.Eval(page)
	if in.Type() == c.typ || in.Type() == esql.TypeNull {
		return in
	}
	return cast.Block(in, c.typ, c.fn, c.warner)
}

// Call evaluates a scalar function.
type Call struct {
	fn   Function
	args []Evaluator
	typ  esql.DataType
}

var _ Evaluator = (*Call)(nil)

func NewCall(fn Function, args []Evaluator, typ esql.DataType) *Call {
	return &Call{fn: fn, args: args, typ: typ}
}

func (c *Call) Type() esql.DataType {
	return c.typ
}

func (c *Call) Eval(page *vector.Page) vector.Block {
	args := make([]vector.Block, 0, len(c.args))
	for _, e := range c.args {
		args = append(args, e.Eval(page))
	}
	return c.fn.Call(page.Len(), args)
}
