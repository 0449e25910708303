package function

import (
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

func init() {
	register("mv_zip", "mv_zip(left, right[, delimiter])",
		"Combines the values of two multi-valued string fields pairwise with a delimiter.",
		2, 3, newMvZip)
	register("mv_count", "mv_count(field)",
		"Returns the number of values in a field.",
		1, 1, newMvCount)
	register("mv_concat", "mv_concat(field, delimiter)",
		"Joins the values of a multi-valued string field with a delimiter.",
		2, 2, newMvConcat)
	register("mv_first", "mv_first(field)",
		"Returns the first value of a multi-valued field.",
		1, 1, func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
			return &mvPick{first: true}, types[0], nil
		})
	register("mv_last", "mv_last(field)",
		"Returns the last value of a multi-valued field.",
		1, 1, func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
			return &mvPick{}, types[0], nil
		})
	register("mv_min", "mv_min(field)",
		"Returns the smallest value of a multi-valued field.",
		1, 1, func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
			return &mvExtreme{typ: types[0], sign: -1}, types[0], nil
		})
	register("mv_max", "mv_max(field)",
		"Returns the largest value of a multi-valued field.",
		1, 1, func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
			return &mvExtreme{typ: types[0], sign: 1}, types[0], nil
		})
	register("mv_dedupe", "mv_dedupe(field)",
		"Removes duplicate values from a multi-valued field, keeping the first occurrence of each.",
		1, 1, func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
			return &mvDedupe{typ: types[0]}, types[0], nil
		})
}

// MvZip pairs the values of two string blocks position by position,
// joining each pair with a delimiter.  When one side is null the other
// side passes through unchanged.  When the sides have different lengths
// the tail of the longer side passes through without a delimiter.
type MvZip struct {
	warner *runtime.Warner
}

func newMvZip(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	if err := checkArgs("mv_zip", types, "string", isString); err != nil {
		return nil, esql.TypeUnsupported, err
	}
	return &MvZip{warner: env.Warner}, esql.TypeKeyword, nil
}

func (m *MvZip) Call(n int, args []vector.Block) vector.Block {
	left, right := args[0], args[1]
	out := vector.NewBuilder[string](esql.TypeKeyword, n)
	for pos := range n {
		delim := ","
		if len(args) == 3 {
			v, ok := expr.Single(args[2], pos, m.warner)
			if !ok {
				out.AppendNull()
				continue
			}
			delim = v.(string)
		}
		Zip(out, left, right, pos, delim)
	}
	return out.Build()
}

// Zip appends to out the zipped values of left and right at position pos.
func Zip(out *vector.Builder[string], left, right vector.Block, pos int, delim string) {
	lc, rc := left.ValueCount(pos), right.ValueCount(pos)
	lf, rf := left.FirstValueIndex(pos), right.FirstValueIndex(pos)
	switch {
	case lc == 0 && rc == 0:
		out.AppendNull()
	case lc == 0:
		copyStrings(out, right, rf, rc)
	case rc == 0:
		copyStrings(out, left, lf, lc)
	case lc == 1 && rc == 1:
		out.Append(left.Any(lf).(string) + delim + right.Any(rf).(string))
	default:
		out.BeginPositionEntry()
		for i := range max(lc, rc) {
			switch {
			case i < lc && i < rc:
				out.Append(left.Any(lf+i).(string) + delim + right.Any(rf+i).(string))
			case i < lc:
				out.Append(left.Any(lf + i).(string))
			default:
				out.Append(right.Any(rf + i).(string))
			}
		}
		out.EndPositionEntry()
	}
}

func copyStrings(out *vector.Builder[string], b vector.Block, first, count int) {
	if count == 1 {
		out.Append(b.Any(first).(string))
		return
	}
	out.BeginPositionEntry()
	for i := first; i < first+count; i++ {
		out.Append(b.Any(i).(string))
	}
	out.EndPositionEntry()
}

type mvCount struct{}

func newMvCount(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	return &mvCount{}, esql.TypeInteger, nil
}

func (*mvCount) Call(n int, args []vector.Block) vector.Block {
	out := vector.NewBuilder[int32](esql.TypeInteger, n)
	for pos := range n {
		if c := args[0].ValueCount(pos); c > 0 {
			out.Append(int32(c))
		} else {
			out.AppendNull()
		}
	}
	return out.Build()
}

type mvConcat struct {
	warner *runtime.Warner
}

func newMvConcat(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	if err := checkArgs("mv_concat", types, "string", isString); err != nil {
		return nil, esql.TypeUnsupported, err
	}
	return &mvConcat{env.Warner}, esql.TypeKeyword, nil
}

func (m *mvConcat) Call(n int, args []vector.Block) vector.Block {
	out := vector.NewBuilder[string](esql.TypeKeyword, n)
	var sb strings.Builder
	for pos := range n {
		delim, ok := expr.Single(args[1], pos, m.warner)
		if !ok || args[0].IsNull(pos) {
			out.AppendNull()
			continue
		}
		sb.Reset()
		for k, v := range vector.Scalars(args[0], pos) {
			if k > 0 {
				sb.WriteString(delim.(string))
			}
			sb.WriteString(v.(string))
		}
		out.Append(sb.String())
	}
	return out.Build()
}

type mvPick struct {
	first bool
}

func (m *mvPick) Call(n int, args []vector.Block) vector.Block {
	in := args[0]
	out := vector.NewBuilderFor(in.Type(), n)
	for pos := range n {
		c := in.ValueCount(pos)
		switch {
		case c == 0:
			out.AppendNull()
		case m.first:
			out.AppendAny(in.Any(in.FirstValueIndex(pos)))
		default:
			out.AppendAny(in.Any(in.FirstValueIndex(pos) + c - 1))
		}
	}
	return out.Build()
}

type mvExtreme struct {
	typ  esql.DataType
	sign int
}

func (m *mvExtreme) Call(n int, args []vector.Block) vector.Block {
	in := args[0]
	out := vector.NewBuilderFor(in.Type(), n)
	for pos := range n {
		vals := vector.Scalars(in, pos)
		if len(vals) == 0 {
			out.AppendNull()
			continue
		}
		best := vals[0]
		for _, v := range vals[1:] {
			if esql.Compare(m.typ, v, best)*m.sign > 0 {
				best = v
			}
		}
		out.AppendAny(best)
	}
	return out.Build()
}

type mvDedupe struct {
	typ esql.DataType
}

func (m *mvDedupe) Call(n int, args []vector.Block) vector.Block {
	in := args[0]
	out := vector.NewBuilderFor(in.Type(), n)
	seen := make(map[any]struct{})
	for pos := range n {
		vals := vector.Scalars(in, pos)
		clear(seen)
		unique := vals[:0:0]
		for _, v := range vals {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				unique = append(unique, v)
			}
		}
		appendValues(out, unique)
	}
	return out.Build()
}
