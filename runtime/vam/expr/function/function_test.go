package function_test

import (
	"testing"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr/function"
	"github.com/brimdata/esql/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// keywords builds a keyword block with one position per row.  A nil row
// is null.
func keywords(rows ...[]string) vector.Block {
	b := vector.NewBuilder[string](esql.TypeKeyword, len(rows))
	for _, row := range rows {
		switch len(row) {
		case 0:
			b.AppendNull()
		case 1:
			b.Append(row[0])
		default:
			b.BeginPositionEntry()
			for _, s := range row {
				b.Append(s)
			}
			b.EndPositionEntry()
		}
	}
	return b.Build()
}

func ints(vals ...any) vector.Block {
	b := vector.NewBuilder[int32](esql.TypeInteger, len(vals))
	for _, v := range vals {
		switch v := v.(type) {
		case nil:
			b.AppendNull()
		case int:
			b.Append(int32(v))
		case []int:
			b.BeginPositionEntry()
			for _, x := range v {
				b.Append(int32(x))
			}
			b.EndPositionEntry()
		}
	}
	return b.Build()
}

func call(t *testing.T, rctx *runtime.Context, name string, args ...vector.Block) vector.Block {
	t.Helper()
	types := make([]esql.DataType, 0, len(args))
	for _, a := range args {
		types = append(types, a.Type())
	}
	env := function.Env{Rctx: rctx, Warner: runtime.NewWarner(rctx, 1, 1, name)}
	fn, _, err := function.New(env, name, types)
	require.NoError(t, err)
	n := 0
	if len(args) > 0 {
		n = args[0].Len()
	}
	return fn.Call(n, args)
}

func rows(b vector.Block) []any {
	out := make([]any, 0, b.Len())
	for pos := range b.Len() {
		out = append(out, vector.Get(b, pos))
	}
	return out
}

func TestMvZip(t *testing.T) {
	rctx := runtime.DefaultContext()
	left := keywords([]string{"a"}, []string{"a", "b"}, nil, []string{"a"}, nil, []string{"x"}, []string{"a", "b", "c"})
	right := keywords([]string{"b"}, []string{"x"}, []string{"x", "y"}, nil, nil, []string{"1", "2", "3"}, []string{"p", "q"})
	out := call(t, rctx, "mv_zip", left, right, vector.NewConst(esql.NewKeyword("-"), 7))
	assert.Equal(t, []any{
		"a-b",
		[]any{"a-x", "b"},
		[]any{"x", "y"},
		"a",
		nil,
		[]any{"x-1", "2", "3"},
		[]any{"a-p", "b-q", "c"},
	}, rows(out))
	assert.Equal(t, 7, out.Len())
}

func TestMvZipDefaultDelimiter(t *testing.T) {
	out := call(t, runtime.DefaultContext(), "mv_zip", keywords([]string{"a", "b"}), keywords([]string{"1", "2"}))
	assert.Equal(t, []any{[]any{"a,1", "b,2"}}, rows(out))
}

func TestMvZipNullDelimiter(t *testing.T) {
	out := call(t, runtime.DefaultContext(), "mv_zip", keywords([]string{"a"}), keywords([]string{"b"}), keywords(nil))
	assert.Equal(t, []any{nil}, rows(out))
}

func TestMvZipRejectsNumbers(t *testing.T) {
	_, _, err := function.New(function.Env{}, "mv_zip", []esql.DataType{esql.TypeKeyword, esql.TypeInteger})
	require.Error(t, err)
	assert.Equal(t, "second argument of [mv_zip] must be [string], found value type [integer]", err.Error())
}

func TestMvFunctions(t *testing.T) {
	rctx := runtime.DefaultContext()
	in := ints([]int{3, 1, 3, 2}, 7, nil)
	assert.Equal(t, []any{int32(4), int32(1), nil}, rows(call(t, rctx, "mv_count", in)))
	assert.Equal(t, []any{int32(3), int32(7), nil}, rows(call(t, rctx, "mv_first", in)))
	assert.Equal(t, []any{int32(2), int32(7), nil}, rows(call(t, rctx, "mv_last", in)))
	assert.Equal(t, []any{int32(1), int32(7), nil}, rows(call(t, rctx, "mv_min", in)))
	assert.Equal(t, []any{int32(3), int32(7), nil}, rows(call(t, rctx, "mv_max", in)))
	assert.Equal(t, []any{[]any{int32(3), int32(1), int32(2)}, int32(7), nil}, rows(call(t, rctx, "mv_dedupe", in)))
	concat := call(t, rctx, "mv_concat", keywords([]string{"a", "b"}, nil), vector.NewConst(esql.NewKeyword(", "), 2))
	assert.Equal(t, []any{"a, b", nil}, rows(concat))
}

func TestStringFunctions(t *testing.T) {
	rctx := runtime.DefaultContext()
	s := keywords([]string{"  Hello World  "})
	assert.Equal(t, []any{"Hello World"}, rows(call(t, rctx, "trim", s)))
	assert.Equal(t, []any{int32(15)}, rows(call(t, rctx, "length", s)))
	assert.Equal(t, []any{"  HELLO WORLD  "}, rows(call(t, rctx, "to_upper", s)))
	parts := call(t, rctx, "split", keywords([]string{"a,b,c"}, []string{"abc"}), vector.NewConst(esql.NewKeyword(","), 2))
	assert.Equal(t, []any{[]any{"a", "b", "c"}, "abc"}, rows(parts))
	assert.Equal(t, []any{"foobar"}, rows(call(t, rctx, "concat", keywords([]string{"foo"}), keywords([]string{"bar"}))))
	assert.Equal(t, []any{nil}, rows(call(t, rctx, "concat", keywords([]string{"foo"}), keywords(nil))))
	assert.Equal(t, []any{int32(3)}, rows(call(t, rctx, "levenshtein", keywords([]string{"kitten"}), keywords([]string{"sitting"}))))
	assert.Equal(t, []any{true}, rows(call(t, rctx, "starts_with", keywords([]string{"kitten"}), keywords([]string{"kit"}))))
}

func TestToUpperLocale(t *testing.T) {
	rctx := runtime.NewContext(t.Context(), language.Turkish)
	assert.Equal(t, []any{"İ"}, rows(call(t, rctx, "to_upper", keywords([]string{"i"}))))
}

func TestSubstring(t *testing.T) {
	assert.Equal(t, "ell", function.Substring("hello", 2, 3))
	assert.Equal(t, "llo", function.Substring("hello", -3, -1))
	assert.Equal(t, "hello", function.Substring("hello", 0, -1))
	assert.Equal(t, "", function.Substring("hello", 9, 2))
	assert.Equal(t, "ö", function.Substring("höla", 2, 1))
}

func TestRound(t *testing.T) {
	for _, c := range []struct {
		in       any
		decimals int64
		out      any
	}{
		{1.2345, 2, 1.23},
		{2.5, 0, 3.0},
		{-2.5, 0, -3.0},
		{int64(1250), -2, int64(1300)},
		{int64(-1250), -2, int64(-1300)},
		{int32(17), 1, int32(17)},
		{uint64(149), -2, uint64(100)},
	} {
		out, err := function.Round(c.in, c.decimals)
		require.NoError(t, err)
		assert.Equal(t, c.out, out, "round(%v, %d)", c.in, c.decimals)
	}
}

func TestCoalesceAndCase(t *testing.T) {
	rctx := runtime.DefaultContext()
	out := call(t, rctx, "coalesce", ints(nil, 2, nil), ints([]int{5, 6}, 9, nil))
	assert.Equal(t, []any{[]any{int32(5), int32(6)}, int32(2), nil}, rows(out))

	cond := vector.NewBuilder[bool](esql.TypeBoolean, 3)
	cond.Append(true)
	cond.Append(false)
	cond.AppendNull()
	out = call(t, rctx, "case", cond.Build(), keywords([]string{"yes"}, []string{"yes"}, []string{"yes"}), keywords([]string{"no"}, []string{"no"}, []string{"no"}))
	assert.Equal(t, []any{"yes", "no", "no"}, rows(out))
}

func TestConversionWarnings(t *testing.T) {
	rctx := runtime.DefaultContext()
	out := call(t, rctx, "to_integer", keywords([]string{"12"}, []string{"abc"}, []string{"1", "x", "3"}))
	assert.Equal(t, []any{int32(12), nil, []any{int32(1), int32(3)}}, rows(out))
	assert.Equal(t, []string{
		"Line 1:1: evaluation of [to_integer] failed, treating result as null. Only first 20 failures recorded.",
		"Line 1:1: Cannot convert [abc] to [integer]",
		"Line 1:1: Cannot convert [x] to [integer]",
	}, rctx.Warnings())
}

func TestMultiValueWarning(t *testing.T) {
	rctx := runtime.DefaultContext()
	out := call(t, rctx, "abs", ints([]int{-1, 2}, -4))
	assert.Equal(t, []any{nil, int32(4)}, rows(out))
	assert.Contains(t, rctx.Warnings(), "Line 1:1: single-value function encountered multi-value")
}

func TestArity(t *testing.T) {
	_, _, err := function.New(function.Env{}, "length", nil)
	assert.ErrorIs(t, err, function.ErrTooFewArgs)
	_, _, err = function.New(function.Env{}, "nosuch", nil)
	assert.ErrorIs(t, err, function.ErrNoSuchFunction)
	def, ok := function.Lookup("MV_ZIP")
	require.True(t, ok)
	assert.Equal(t, 3, def.ArgMax)
}
