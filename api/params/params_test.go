package params

import (
	"errors"
	"testing"

	"github.com/brimdata/esql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindError(t *testing.T, s string) *Error {
	_, err := Parse([]byte(s))
	var perr *Error
	require.True(t, errors.As(err, &perr), "%q: %v", s, err)
	return perr
}

func TestUnnamed(t *testing.T) {
	list, err := Parse([]byte(`[1, 2, 3]`))
	require.NoError(t, err)
	require.Equal(t, 3, list.Len())
	assert.False(t, list.Named)
	for k, p := range list.Params {
		assert.Equal(t, "", p.Name)
		assert.Equal(t, esql.NewInteger(int32(k+1)), p.Value)
	}
}

func TestNamed(t *testing.T) {
	list, err := Parse([]byte(`[{"x": 5}]`))
	require.NoError(t, err)
	assert.True(t, list.Named)
	p, ok := list.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, esql.NewInteger(5), p.Value)
	assert.False(t, p.ExplicitType)
}

func TestInference(t *testing.T) {
	list, err := Parse([]byte(`["s", 7, 3000000000, 18446744073709551615, 1e400, 1.5, true, null]`))
	require.NoError(t, err)
	var types []esql.DataType
	for _, p := range list.Params {
		types = append(types, p.Value.Type)
	}
	assert.Equal(t, []esql.DataType{
		esql.TypeKeyword, esql.TypeInteger, esql.TypeLong, esql.TypeUnsignedLong,
		esql.TypeDouble, esql.TypeDouble, esql.TypeBoolean, esql.TypeNull,
	}, types)
	assert.Equal(t, int64(3000000000), list.Params[2].Value.Any)
	assert.True(t, list.Params[7].Value.IsNull())
}

func TestValueTypePairs(t *testing.T) {
	list, err := Parse([]byte(`[{"value": 1, "type": "long"}, {"value": "2024-01-02T03:04:05Z", "type": "datetime"}, {"type": "null"}, {"value": null, "type": "NULL"}]`))
	require.NoError(t, err)
	assert.Equal(t, esql.NewLong(1), list.Params[0].Value)
	assert.True(t, list.Params[0].ExplicitType)
	assert.Equal(t, esql.TypeDatetime, list.Params[1].Value.Type)
	assert.Equal(t, int64(1704164645000), list.Params[1].Value.Any)
	assert.True(t, list.Params[2].Value.IsNull())
	assert.True(t, list.Params[3].Value.IsNull())
}

func TestFieldAndPatternParams(t *testing.T) {
	list, err := Parse([]byte(`[{"f": {"identifier": "emp_no"}}, {"p": {"pattern": "emp_*"}}]`))
	require.NoError(t, err)
	f, _ := list.Lookup("f")
	assert.True(t, f.IsField)
	assert.Equal(t, "emp_no", f.Value.Any)
	p, _ := list.Lookup("p")
	assert.True(t, p.IsPattern)
	assert.Equal(t, "emp_*", p.Value.Any)
	bindError(t, `[{"f": {"other": "x"}}]`)
}

func TestErrors(t *testing.T) {
	cases := []struct{ in, msg string }{
		{`[{"value": 1, "type": "integer"}, {"name": 1}]`, "Params contain both named and unnamed parameters"},
		{`[1, {"name": 1}]`, "Params contain both named and unnamed parameters"},
		{`[{"1": 5}]`, "Integer 1 is not a valid name for a parameter "},
		{`[{"value": 1}]`, "Required a [value] and [type] pair"},
		{`[{"type": "integer"}]`, "Required a [value] and [type] pair"},
		{`[{"value": "x", "type": "integer"}]`, `Cannot convert ["x"] to [integer]`},
		{`[{"value": 1, "type": "geo"}]`, "Invalid parameter data type [geo]"},
		{`[{"a": 1, "b": 2}]`, `Cannot parse more than one key:value pair as parameter, found [{"a": 1, "b": 2}]`},
		{`[[1]]`, "Failed to parse object: unexpected token [START_ARRAY] found"},
		{`{"a": 1}`, "[params] must be an array, found [{]"},
	}
	for _, c := range cases {
		assert.Equal(t, c.msg, bindError(t, c.in).Msg, c.in)
	}
}

func TestErrorLocation(t *testing.T) {
	err := bindError(t, "[\n  1,\n  {\"7\": 1}\n]")
	require.NotNil(t, err.Loc)
	assert.Equal(t, Location{Line: 3, Column: 3}, *err.Loc)
	assert.Equal(t, "[3:3] Integer 7 is not a valid name for a parameter ", err.Error())
}

func TestLocationRecording(t *testing.T) {
	list, err := Parse([]byte(`[1, 2, {"value": 3, "type": "long"}, {"value": 4, "type": "long"}, 5, 6]`))
	require.NoError(t, err)
	var recorded []bool
	for _, p := range list.Params {
		recorded = append(recorded, p.Loc != nil)
	}
	// First param, the first explicit pair after inferred params, and the
	// first inferred param after explicit ones.
	assert.Equal(t, []bool{true, false, true, false, true, false}, recorded)
	assert.Equal(t, Location{1, 2}, *list.Params[0].Loc)
	assert.Equal(t, Location{1, 8}, *list.Params[2].Loc)
	assert.Equal(t, list.Params[0].Loc, list.Location(1))
}

func TestNullParams(t *testing.T) {
	list, err := Parse([]byte(`null`))
	require.NoError(t, err)
	assert.Equal(t, 0, list.Len())
}

func TestMalformedParams(t *testing.T) {
	for _, in := range []string{`[1,}`, `[{"x":1,}]`, `[1`} {
		err := bindError(t, in)
		assert.Contains(t, err.Msg, "Failed to parse params: ", in)
		assert.NotNil(t, err.Loc, in)
	}
}
