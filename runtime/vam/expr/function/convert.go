package function

import (
	"fmt"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/runtime/vam/expr/cast"
	"github.com/brimdata/esql/vector"
)

func init() {
	conversions := []struct {
		name string
		typ  esql.DataType
	}{
		{"to_string", esql.TypeKeyword},
		{"to_integer", esql.TypeInteger},
		{"to_long", esql.TypeLong},
		{"to_unsigned_long", esql.TypeUnsignedLong},
		{"to_double", esql.TypeDouble},
		{"to_boolean", esql.TypeBoolean},
		{"to_datetime", esql.TypeDatetime},
		{"to_timeduration", esql.TypeTimeDuration},
		{"to_dateperiod", esql.TypeDatePeriod},
	}
	for _, c := range conversions {
		register(c.name, c.name+"(field)",
			fmt.Sprintf("Converts each value of a field to [%s].", c.typ),
			1, 1, newConvert(c.name, c.typ))
	}
	register("now", "now()",
		"Returns the time the query started.",
		0, 0, func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
			return &now{env.Rctx}, esql.TypeDatetime, nil
		})
}

type convert struct {
	typ    esql.DataType
	fn     cast.Func
	warner *runtime.Warner
}

func newConvert(name string, typ esql.DataType) builder {
	return func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
		fn, ok := cast.To(types[0], typ)
		if !ok {
			return nil, esql.TypeUnsupported, argError(name, 0, "convertible", types[0])
		}
		return &convert{typ: typ, fn: fn, warner: env.Warner}, typ, nil
	}
}

func (c *convert) Call(n int, args []vector.Block) vector.Block {
	if args[0].Type() == esql.TypeNull {
		return vector.NewNull(n)
	}
	return cast.Block(args[0], c.typ, c.fn, c.warner)
}

type now struct {
	rctx *runtime.Context
}

func (f *now) Call(n int, args []vector.Block) vector.Block {
	return vector.NewConst(esql.Value{Type: esql.TypeDatetime, Any: f.rctx.Now.UnixMilli()}, n)
}
