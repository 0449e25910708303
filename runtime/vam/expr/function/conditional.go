package function

import (
	"fmt"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

func init() {
	register("coalesce", "coalesce(first[, ..., rest])",
		"Returns the first of its arguments that is not null.",
		1, -1, newCoalesce)
	register("case", "case(condition, value[, ..., condition, value][, else])",
		"Returns the value following the first condition that is true, else the trailing default or null.",
		2, -1, newCase)
}

func widenAll(name string, types []esql.DataType) (esql.DataType, error) {
	typ := esql.TypeNull
	for k, t := range types {
		w, ok := esql.Widen(typ, t)
		if !ok {
			return esql.TypeUnsupported, fmt.Errorf("%s argument of [%s] must be [%s], found value type [%s]", ordinal(k), name, typ, t)
		}
		typ = w
	}
	return typ, nil
}

// Coalesce copies the first argument position that is not null, keeping
// all of its values.
type Coalesce struct {
	typ esql.DataType
}

func newCoalesce(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	typ, err := widenAll("coalesce", types)
	if err != nil {
		return nil, esql.TypeUnsupported, err
	}
	return &Coalesce{typ}, typ, nil
}

func (c *Coalesce) Call(n int, args []vector.Block) vector.Block {
	if c.typ == esql.TypeNull {
		return vector.NewNull(n)
	}
	out := vector.NewBuilderFor(c.typ, n)
	for pos := range n {
		copyFirst(out, c.typ, args, pos)
	}
	return out.Build()
}

func copyFirst(out vector.AnyBuilder, typ esql.DataType, args []vector.Block, pos int) {
	for _, arg := range args {
		if !arg.IsNull(pos) {
			copyCoerced(out, typ, arg, pos)
			return
		}
	}
	out.AppendNull()
}

func copyCoerced(out vector.AnyBuilder, typ esql.DataType, b vector.Block, pos int) {
	vals := vector.Scalars(b, pos)
	for k, v := range vals {
		vals[k] = esql.Coerce(v, typ)
	}
	appendValues(out, vals)
}

// Case evaluates condition/value pairs in order.
type Case struct {
	typ    esql.DataType
	warner *runtime.Warner
}

func newCase(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	var values []esql.DataType
	for k := 0; k < len(types); k += 2 {
		if k+1 == len(types) {
			values = append(values, types[k])
			break
		}
		if t := types[k]; t != esql.TypeBoolean && t != esql.TypeNull {
			return nil, esql.TypeUnsupported, argError("case", k, "boolean", t)
		}
		values = append(values, types[k+1])
	}
	typ, err := widenAll("case", values)
	if err != nil {
		return nil, esql.TypeUnsupported, err
	}
	return &Case{typ: typ, warner: env.Warner}, typ, nil
}

func (c *Case) Call(n int, args []vector.Block) vector.Block {
	if c.typ == esql.TypeNull {
		return vector.NewNull(n)
	}
	out := vector.NewBuilderFor(c.typ, n)
	for pos := range n {
		c.row(out, args, pos)
	}
	return out.Build()
}

func (c *Case) row(out vector.AnyBuilder, args []vector.Block, pos int) {
	for k := 0; k < len(args); k += 2 {
		if k+1 == len(args) {
			copyCoerced(out, c.typ, args[k], pos)
			return
		}
		if v, ok := expr.Single(args[k], pos, c.warner); ok && v.(bool) {
			copyCoerced(out, c.typ, args[k+1], pos)
			return
		}
	}
	out.AppendNull()
}
