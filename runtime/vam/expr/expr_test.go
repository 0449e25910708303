package expr_test

import (
	"math"
	"testing"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(cols map[string]vector.Block) *vector.Page {
	var schema vector.Schema
	var blocks []vector.Block
	n := 0
	for name, b := range cols {
		schema = append(schema, vector.Column{Name: name, Type: b.Type()})
		blocks = append(blocks, b)
		n = b.Len()
	}
	return vector.NewPage(schema, blocks, n)
}

func longs(vals ...any) vector.Block {
	b := vector.NewBuilder[int64](esql.TypeLong, len(vals))
	for _, v := range vals {
		switch v := v.(type) {
		case nil:
			b.AppendNull()
		case int64:
			b.Append(v)
		case int:
			b.Append(int64(v))
		case []int:
			b.BeginPositionEntry()
			for _, x := range v {
				b.Append(int64(x))
			}
			b.EndPositionEntry()
		}
	}
	return b.Build()
}

func bools(vals ...any) vector.Block {
	b := vector.NewBuilder[bool](esql.TypeBoolean, len(vals))
	for _, v := range vals {
		if v == nil {
			b.AppendNull()
		} else {
			b.Append(v.(bool))
		}
	}
	return b.Build()
}

func rows(b vector.Block) []any {
	out := make([]any, 0, b.Len())
	for pos := range b.Len() {
		out = append(out, vector.Get(b, pos))
	}
	return out
}

func TestArithOverflowAndDivision(t *testing.T) {
	rctx := runtime.DefaultContext()
	w := runtime.NewWarner(rctx, 1, 20, "a / b")
	p := page(map[string]vector.Block{
		"a": longs(10, math.MaxInt64, 7, nil, []int{1, 2}),
		"b": longs(2, 1, 0, 1, 1),
	})
	add, err := expr.NewArith("+", expr.NewField("a", esql.TypeLong), expr.NewField("b", esql.TypeLong), w)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(12), nil, int64(7), nil, nil}, rows(add.Eval(p)))
	div, err := expr.NewArith("/", expr.NewField("a", esql.TypeLong), expr.NewField("b", esql.TypeLong), w)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(5), int64(math.MaxInt64), nil, nil, nil}, rows(div.Eval(p)))
	assert.Equal(t, []string{
		"Line 1:20: evaluation of [a / b] failed, treating result as null. Only first 20 failures recorded.",
		"Line 1:20: long overflow",
		"Line 1:20: single-value function encountered multi-value",
		"Line 1:20: / by zero",
	}, rctx.Warnings())
}

func TestArithWidening(t *testing.T) {
	lit := func(v esql.Value) expr.Evaluator { return expr.NewLiteral(v) }
	p := vector.NewPage(nil, nil, 1)
	e, err := expr.NewArith("*", lit(esql.NewInteger(3)), lit(esql.NewDouble(1.5)), nil)
	require.NoError(t, err)
	assert.Equal(t, esql.TypeDouble, e.Type())
	assert.Equal(t, []any{4.5}, rows(e.Eval(p)))
	e, err = expr.NewArith("+", lit(esql.NewInteger(math.MaxInt32)), lit(esql.NewInteger(1)), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, rows(e.Eval(p)))
	_, err = expr.NewArith("+", lit(esql.NewKeyword("x")), lit(esql.NewInteger(1)), nil)
	assert.EqualError(t, err, "arguments of [+] have incompatible types [keyword] and [integer]")
}

func TestDatetimeArith(t *testing.T) {
	day := esql.Value{Type: esql.TypeDatePeriod, Any: esql.Period{Days: 1}.Pack()}
	hour := esql.Value{Type: esql.TypeTimeDuration, Any: int64(3600e9)}
	ts := esql.Value{Type: esql.TypeDatetime, Any: int64(0)}
	p := vector.NewPage(nil, nil, 1)
	e, err := expr.NewArith("+", expr.NewLiteral(ts), expr.NewLiteral(day), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(86400000)}, rows(e.Eval(p)))
	e, err = expr.NewArith("-", expr.NewLiteral(ts), expr.NewLiteral(hour), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(-3600000)}, rows(e.Eval(p)))
}

func TestThreeValuedLogic(t *testing.T) {
	p := page(map[string]vector.Block{
		"l": bools(true, true, true, false, false, nil, nil),
		"r": bools(true, false, nil, false, nil, false, nil),
	})
	l := expr.NewField("l", esql.TypeBoolean)
	r := expr.NewField("r", esql.TypeBoolean)
	assert.Equal(t, []any{true, false, nil, false, false, false, nil}, rows(expr.NewLogicalAnd(l, r, nil).Eval(p)))
	assert.Equal(t, []any{true, true, true, false, nil, nil, nil}, rows(expr.NewLogicalOr(l, r, nil).Eval(p)))
	assert.Equal(t, []any{false, false, false, true, true, nil, nil}, rows(expr.NewLogicalNot(l, nil).Eval(p)))
	assert.Equal(t, []any{false, false, false, false, false, true, true}, rows(expr.NewIsNull(l, false).Eval(p)))
}

func TestCompareAndIn(t *testing.T) {
	p := page(map[string]vector.Block{"x": longs(1, 5, nil, []int{1, 2})})
	x := expr.NewField("x", esql.TypeLong)
	cmp, err := expr.NewCompare(">", x, expr.NewLiteral(esql.NewDouble(2.5)), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{false, true, nil, nil}, rows(cmp.Eval(p)))

	list := []expr.Evaluator{expr.NewLiteral(esql.NewInteger(5)), expr.NewLiteral(esql.Null)}
	in, err := expr.NewIn(x, list, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, true, nil, nil}, rows(in.Eval(p)))

	_, err = expr.NewCompare("<", expr.NewLiteral(esql.NewBoolean(true)), expr.NewLiteral(esql.NewBoolean(false)), nil)
	assert.Error(t, err)
}

func TestLike(t *testing.T) {
	for _, c := range []struct {
		pattern string
		in      string
		match   bool
	}{
		{"foo*", "foobar", true},
		{"foo*", "barfoo", false},
		{"f?o", "fao", true},
		{"f?o", "fo", false},
		{"100%", "100%", true},
		{"100%", "1000", false},
		{`a\*b`, "a*b", true},
		{`a\*b`, "axb", false},
		{`a\?b`, "a?b", true},
		{`a\?b`, "axb", false},
		{`a\\b`, `a\b`, true},
		{`a\\*`, `a\xyz`, true},
		{`a\%`, "a%", true},
		{`a\`, `a\`, true},
		{"a_b", "a_b", true},
		{"a_b", "axb", false},
	} {
		re, err := expr.CompileLike(c.pattern)
		require.NoError(t, err)
		assert.Equal(t, c.match, re.MatchString(c.in), "%q LIKE %q", c.in, c.pattern)
	}
	re, err := expr.CompileRlike("fo+")
	require.NoError(t, err)
	assert.True(t, re.MatchString("fooo"))
	assert.False(t, re.MatchString("xfoo"))
}

func TestCast(t *testing.T) {
	rctx := runtime.DefaultContext()
	b := vector.NewBuilder[string](esql.TypeKeyword, 2)
	b.Append("42")
	b.Append("nope")
	p := page(map[string]vector.Block{"s": b.Build()})
	c, err := expr.NewCast(expr.NewField("s", esql.TypeKeyword), esql.TypeLong, runtime.NewWarner(rctx, 1, 1, "s::long"))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(42), nil}, rows(c.Eval(p)))
	assert.Len(t, rctx.Warnings(), 2)
	_, err = expr.NewCast(expr.NewField("s", esql.TypeBoolean), esql.TypeDatetime, nil)
	assert.Error(t, err)
}

func TestBoolMask(t *testing.T) {
	mask := expr.BoolMask(bools(true, false, nil, true))
	assert.Equal(t, []uint32{0, 3}, mask.ToArray())
}
