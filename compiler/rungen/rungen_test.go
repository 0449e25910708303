package rungen_test

import (
	"testing"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/compiler"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T) *exec.Environment {
	m := catalog.NewMemory()
	require.NoError(t, m.AddDocuments("people", []map[string]any{
		{"name": "alice", "age": int64(31), "team": "red", "msg": "GET /a"},
		{"name": "bob", "age": int64(25), "team": "blue", "msg": "PUT /b"},
		{"name": "carol", "age": int64(40), "team": "red", "msg": "GET /c"},
		{"name": "dave", "team": "blue", "msg": "junk"},
	}))
	require.NoError(t, m.AddDocuments("people-2", []map[string]any{
		{"name": "erin", "age": "unknown"},
	}))
	return exec.NewEnvironment(m)
}

func run(t *testing.T, env *exec.Environment, query string, prms *params.List) (vector.Schema, [][]any, error) {
	t.Helper()
	q, err := compiler.Compile(runtime.DefaultContext(), env, prms, query)
	if err != nil {
		return nil, nil, err
	}
	defer q.Close()
	pages, err := vector.ReadAll(q)
	require.NoError(t, err)
	var rows [][]any
	for _, page := range pages {
		rows = append(rows, page.Rows()...)
	}
	return q.Schema(), rows, nil
}

func rowsOf(t *testing.T, env *exec.Environment, query string) [][]any {
	t.Helper()
	_, rows, err := run(t, env, query, nil)
	require.NoError(t, err)
	return rows
}

func TestRowEval(t *testing.T) {
	schema, rows, err := run(t, newEnv(t), `ROW a = 1, b = "x" | EVAL c = a + 1, a = c * 2`, nil)
	require.NoError(t, err)
	assert.Equal(t, vector.Schema{
		{Name: "b", Type: esql.TypeKeyword},
		{Name: "c", Type: esql.TypeInteger},
		{Name: "a", Type: esql.TypeInteger},
	}, schema)
	assert.Equal(t, [][]any{{"x", int32(2), int32(4)}}, rows)
}

func TestLiteralTypes(t *testing.T) {
	schema, rows, err := run(t, newEnv(t), `ROW i = 2147483647, l = 2147483648, u = 18446744073709551615, d = 1.5, arr = [1, 2]`, nil)
	require.NoError(t, err)
	var types []esql.DataType
	for _, c := range schema {
		types = append(types, c.Type)
	}
	assert.Equal(t, []esql.DataType{esql.TypeInteger, esql.TypeLong, esql.TypeUnsignedLong, esql.TypeDouble, esql.TypeInteger}, types)
	assert.Equal(t, [][]any{{int32(2147483647), int64(2147483648), uint64(18446744073709551615), 1.5, []any{int32(1), int32(2)}}}, rows)
}

func TestSignedNumberCast(t *testing.T) {
	assert.Equal(t, [][]any{{"-2"}}, rowsOf(t, newEnv(t), `ROW x = -2::string`))
	assert.Equal(t, [][]any{{int64(-3)}}, rowsOf(t, newEnv(t), `ROW x = -3::long`))
}

func TestFromWhereSortKeep(t *testing.T) {
	rows := rowsOf(t, newEnv(t), `FROM people | WHERE age > 26 | SORT age DESC | KEEP name, age`)
	assert.Equal(t, [][]any{{"carol", int32(40)}, {"alice", int32(31)}}, rows)
}

func TestSortNulls(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, [][]any{{"bob"}, {"alice"}, {"carol"}, {"dave"}},
		rowsOf(t, env, `FROM people | SORT age | KEEP name`))
	assert.Equal(t, [][]any{{"dave"}, {"carol"}},
		rowsOf(t, env, `FROM people | SORT age DESC | LIMIT 2 | KEEP name`))
	assert.Equal(t, [][]any{{"carol"}, {"alice"}, {"bob"}, {"dave"}},
		rowsOf(t, env, `FROM people | SORT age DESC NULLS LAST | KEEP name`))
}

func TestFromUnion(t *testing.T) {
	schema, rows, err := run(t, newEnv(t), `FROM people* METADATA _index | WHERE name == "erin" | KEEP _index, name`, nil)
	require.NoError(t, err)
	assert.Equal(t, vector.Schema{{Name: "_index", Type: esql.TypeKeyword}, {Name: "name", Type: esql.TypeKeyword}}, schema)
	assert.Equal(t, [][]any{{"people-2", "erin"}}, rows)
	_, _, err = run(t, newEnv(t), `FROM people, people-2 | WHERE age > 1`, nil)
	assert.ErrorContains(t, err, "Cannot use field [age] with unsupported type")
}

func TestStats(t *testing.T) {
	schema, rows, err := run(t, newEnv(t), `FROM people | STATS n = count(*), oldest = max(age), total = sum(age) BY team`, nil)
	require.NoError(t, err)
	assert.Equal(t, vector.Schema{
		{Name: "n", Type: esql.TypeLong},
		{Name: "oldest", Type: esql.TypeInteger},
		{Name: "total", Type: esql.TypeLong},
		{Name: "team", Type: esql.TypeKeyword},
	}, schema)
	assert.Equal(t, [][]any{
		{int64(2), int32(40), int64(71), "red"},
		{int64(2), int32(25), int64(25), "blue"},
	}, rows)
}

func TestStatsWithoutGroups(t *testing.T) {
	assert.Equal(t, [][]any{{int64(0)}}, rowsOf(t, newEnv(t), `FROM people | WHERE age > 100 | STATS count()`))
}

func TestDefaultLimit(t *testing.T) {
	env := newEnv(t)
	env.DefaultLimit = 2
	assert.Len(t, rowsOf(t, env, `FROM people`), 2)
	env.MaxLimit = 3
	assert.Len(t, rowsOf(t, env, `FROM people | LIMIT 100`), 3)
	assert.Len(t, rowsOf(t, env, `FROM people | LIMIT 1 | EVAL x = 1`), 1)
}

func TestDropRename(t *testing.T) {
	schema, _, err := run(t, newEnv(t), `FROM people | DROP m* | RENAME name AS team`, nil)
	require.NoError(t, err)
	assert.Equal(t, vector.Schema{
		{Name: "age", Type: esql.TypeInteger},
		{Name: "team", Type: esql.TypeKeyword},
	}, schema)
}

func TestDissect(t *testing.T) {
	rows := rowsOf(t, newEnv(t), `FROM people | DISSECT msg "%{method} %{path}" | SORT name | KEEP method, path`)
	assert.Equal(t, [][]any{{"GET", "/a"}, {"PUT", "/b"}, {"GET", "/c"}, {nil, nil}}, rows)
}

func TestMvExpand(t *testing.T) {
	rows := rowsOf(t, newEnv(t), `ROW a = [1, 2, 3], b = "x" | MV_EXPAND a`)
	assert.Equal(t, [][]any{{int32(1), "x"}, {int32(2), "x"}, {int32(3), "x"}}, rows)
}

func TestLookup(t *testing.T) {
	env := newEnv(t)
	b := vector.NewBuilder[string](esql.TypeKeyword, 2)
	b.Append("red")
	b.Append("blue")
	c := vector.NewBuilder[string](esql.TypeKeyword, 2)
	c.Append("#f00")
	c.Append("#00f")
	env.Tables = map[string]*vector.Page{
		"colors": vector.NewPage(vector.Schema{
			{Name: "team", Type: esql.TypeKeyword},
			{Name: "rgb", Type: esql.TypeKeyword},
		}, []vector.Block{b.Build(), c.Build()}, 2),
	}
	rows := rowsOf(t, env, `FROM people | SORT name | LOOKUP colors ON team | KEEP name, rgb`)
	assert.Equal(t, [][]any{{"alice", "#f00"}, {"bob", "#00f"}, {"carol", "#f00"}, {"dave", "#00f"}}, rows)
	_, _, err := run(t, env, `FROM people | LOOKUP colours ON team`, nil)
	assert.ErrorContains(t, err, "Unknown table [colours], did you mean [colors]?")
}

func TestMvZip(t *testing.T) {
	rows := rowsOf(t, newEnv(t), `ROW a = ["x", "y", "z"], b = ["1", "2"] | EVAL c = mv_zip(a, b, "-") | KEEP c`)
	assert.Equal(t, [][]any{{[]any{"x-1", "y-2", "z"}}}, rows)
}

func TestParams(t *testing.T) {
	env := newEnv(t)
	named := &params.List{Named: true, Params: []params.Param{
		{Name: "n", Value: esql.NewInteger(30)},
		{Name: "col", Value: esql.NewKeyword("name"), IsField: true},
	}}
	_, rows, err := run(t, env, `FROM people | WHERE age > ?n | SORT age | KEEP ?col`, named)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"alice"}, {"carol"}}, rows)

	anon := &params.List{Params: []params.Param{{Value: esql.NewInteger(1)}, {Value: esql.NewKeyword("a")}}}
	_, rows, err = run(t, env, `ROW x = ?, y = ?`, anon)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int32(1), "a"}}, rows)

	_, rows, err = run(t, env, `ROW x = ?2, y = ?1`, anon)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"a", int32(1)}}, rows)

	_, _, err = run(t, env, `ROW x = ?1, y = ?`, anon)
	assert.ErrorContains(t, err, "Inconsistent parameter declaration, use one of positional, named or anonymous params but not a combination of [positional] and [anonymous]")
	_, _, err = run(t, env, `ROW x = ?3`, anon)
	assert.ErrorContains(t, err, "No parameter is defined for position 3, did you mean any position between 1 and 2?")
	_, _, err = run(t, env, `ROW x = ?, y = ?, z = ?`, anon)
	assert.ErrorContains(t, err, "Not enough actual parameters 2")
	_, _, err = run(t, env, `ROW x = ?m`, named)
	assert.ErrorContains(t, err, "Unknown query parameter [m], did you mean [n]?")
}

func TestShowAndMeta(t *testing.T) {
	schema, rows, err := run(t, newEnv(t), `SHOW INFO`, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"version", "date", "hash"}, schema.Names())
	require.Len(t, rows, 1)
	assert.Equal(t, esql.Version, rows[0][0])

	schema, rows, err = run(t, newEnv(t), `META FUNCTIONS`, nil)
	require.NoError(t, err)
	assert.Equal(t, "name", schema[0].Name)
	var found bool
	for _, row := range rows {
		if row[0] == "mv_zip" {
			found = true
			assert.Equal(t, false, row[4])
		}
		if row[0] == "count" {
			assert.Equal(t, true, row[4])
		}
	}
	assert.True(t, found)
}

func TestExplain(t *testing.T) {
	rows := rowsOf(t, newEnv(t), `EXPLAIN [FROM people | where age > 1]`)
	require.Len(t, rows, 1)
	assert.Equal(t, "FROM people\n| WHERE (age > 1)", rows[0][0])
	assert.Equal(t, "parsed", rows[0][1])
}

func TestErrors(t *testing.T) {
	env := newEnv(t)
	cases := []struct {
		query string
		err   string
	}{
		{`FROM nope`, "Unknown index [nope]"},
		{`FROM people | KEEP nme`, "Unknown column [nme], did you mean [name]?"},
		{`FROM people | KEEP z*`, "No matches found for pattern [z*]"},
		{`FROM people | EVAL x = max(age)`, "aggregate function [max(age)] not allowed outside STATS command"},
		{`FROM people | EVAL x = mv_zipp(name, name)`, "Unknown function [mv_zipp], did you mean [mv_zip]?"},
		{`FROM people | EVAL x = mv_zip(name)`, "error building [mv_zip]"},
		{`FROM people | WHERE age`, "Condition expression needs to be boolean, found [integer]"},
		{`FROM people | WHERE age > 1 AND name`, "must be [boolean]"},
		{`FROM people | GROK msg "%{WORD:x}"`, "unsupported command [GROK]"},
		{`FROM people | RENAME n* AS x`, "Using wildcards [*] in RENAME is not allowed"},
		{`FROM people | DISSECT msg "%{a}" foo = "-"`, "Invalid option for dissect: [foo]"},
		{`FROM people | DISSECT msg "%{a}" append_separator = 3`, "Invalid value for dissect append_separator: expected a string, but was [3]"},
		{`FROM people METADATA _score`, "unsupported metadata field [_score]"},
		{`ROW x = 1::foo`, "Unsupported conversion to type [foo]"},
	}
	for _, c := range cases {
		t.Run(c.query, func(t *testing.T) {
			_, _, err := run(t, env, c.query, nil)
			assert.ErrorContains(t, err, c.err)
		})
	}
}

func TestWarnings(t *testing.T) {
	rctx := runtime.DefaultContext()
	q, err := compiler.Compile(rctx, newEnv(t), nil, `ROW a = [1, 2] | EVAL b = a + 1`)
	require.NoError(t, err)
	pages, err := vector.ReadAll(q)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, [][]any{{[]any{int32(1), int32(2)}, nil}}, pages[0].Rows())
	warnings := q.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "Line 1:27: evaluation of [a + 1] failed, treating result as null. Only first 20 failures recorded.", warnings[0])
	assert.Equal(t, "Line 1:27: single-value function encountered multi-value", warnings[1])
}
