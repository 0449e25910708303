package parser_test

import (
	"errors"
	"testing"

	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/compiler/parser"
	"github.com/brimdata/esql/compiler/sfmt"
	"github.com/brimdata/esql/compiler/srcfiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, s string) ast.Expr {
	e, err := parser.ParseExpr(s)
	require.NoError(t, err, s)
	return e
}

func parseQuery(t *testing.T, s string) *ast.Query {
	a, err := parser.ParseQuery(s)
	require.NoError(t, err, s)
	return a.Query()
}

func TestPrecedence(t *testing.T) {
	cases := []struct{ in, out string }{
		{"a OR b AND c", "(a OR (b AND c))"},
		{"a AND b OR c", "((a AND b) OR c)"},
		{"a - b - c", "((a - b) - c)"},
		{"a + b * c", "(a + (b * c))"},
		{"a * b + c % d", "((a * b) + (c % d))"},
		{"NOT a AND b", "(NOT a AND b)"},
		{"NOT (a OR b)", "NOT (a OR b)"},
		{"-a * b", "(-a * b)"},
		{"1 + -2", "(1 + -2)"},
		{"a::long::keyword", "a::long::keyword"},
		{"(-1)::long", "(-1)::long"},
		{"-x::long", "-x::long"},
		{"-2::string", "(-2)::string"},
		{"-1.5::integer", "(-1.5)::integer"},
		{"-2::string::keyword", "(-2)::string::keyword"},
		{"-2 * 3", "(-2 * 3)"},
		{"x.y > 1 OR f(x, 2) == 3 AND y IS NOT NULL", "((x.y > 1) OR ((f(x, 2) == 3) AND y IS NOT NULL))"},
		{`a NOT IN (1, 2) AND b NOT LIKE "x*"`, `(a NOT IN (1, 2) AND b NOT LIKE "x*")`},
		{`a = 1 or b =~ "X"`, `((a == 1) OR (b =~ "X"))`},
		{"NOT a IS NULL", "NOT a IS NULL"},
	}
	for _, c := range cases {
		assert.Equal(t, c.out, sfmt.Expr(parseExpr(t, c.in)), c.in)
	}
}

func TestPrecedenceTree(t *testing.T) {
	e := parseExpr(t, "a - b - c")
	outer, ok := e.(*ast.ArithmeticBinary)
	require.True(t, ok)
	assert.Equal(t, "-", outer.Op)
	inner, ok := outer.LHS.(*ast.ArithmeticBinary)
	require.True(t, ok)
	assert.Equal(t, "a", inner.LHS.(*ast.QualifiedName).Name())
	assert.Equal(t, "c", outer.RHS.(*ast.QualifiedName).Name())

	signed, ok := parseExpr(t, "-2::string").(*ast.InlineCast)
	require.True(t, ok)
	assert.Equal(t, "-2", signed.Expr.(*ast.Literal).Text)
	days, ok := parseExpr(t, "-1 day").(*ast.QualifiedInteger)
	require.True(t, ok)
	assert.Equal(t, "-1", days.Value.Text)

	cast, ok := parseExpr(t, "a::long::keyword").(*ast.InlineCast)
	require.True(t, ok)
	assert.Equal(t, "keyword", cast.Type)
	assert.Equal(t, "long", cast.Expr.(*ast.InlineCast).Type)
}

func TestLongChainIsIterative(t *testing.T) {
	s := "a"
	for range 5000 {
		s += " + a"
	}
	_, err := parser.ParseExpr(s)
	require.NoError(t, err)
}

func TestQueryFormat(t *testing.T) {
	cases := []struct{ in, out string }{
		{
			`from idx metadata _id | where a > 1 | eval b = a * 2, c = mv_zip(x, y, "-") | stats count(*) by b | sort b desc nulls last | limit 10`,
			"FROM idx METADATA _id\n| WHERE (a > 1)\n| EVAL b = (a * 2), c = mv_zip(x, y, \"-\")\n| STATS count(*) BY b\n| SORT b DESC NULLS LAST\n| LIMIT 10",
		},
		{`row a = [1, -2.5], b = [true, false], c = ["x"]`, `ROW a = [1, -2.5], b = [true, false], c = ["x"]`},
		{"row a = ?, b = ?name, c = ?2", "ROW a = ?, b = ?name, c = ?2"},
		{"explain [from a | limit 1] | limit 2", "EXPLAIN [FROM a | LIMIT 1]\n| LIMIT 2"},
		{"show info", "SHOW INFO"},
		{"META functions", "META FUNCTIONS"},
		{"metrics m max(x) by y", "METRICS m max(x) BY y"},
		{`from "my-index", logs-* | keep emp_*, ` + "`first name`" + `, *`, "FROM my-index, logs-*\n| KEEP emp_*, `first name`, *"},
		{"from a | rename x AS y, b as c | drop z", "FROM a\n| RENAME x AS y, b AS c\n| DROP z"},
		{`from a | dissect msg "%{a} %{b}" append_separator = "-"`, "FROM a\n| DISSECT msg \"%{a} %{b}\" append_separator = \"-\""},
		{`from a | grok msg "%{WORD:w}"`, "FROM a\n| GROK msg \"%{WORD:w}\""},
		{"from a | enrich p on k with n = v, w", "FROM a\n| ENRICH p ON k WITH n = v, w"},
		{"from a | mv_expand x.y | lookup t on k1, k2", "FROM a\n| MV_EXPAND x.y\n| LOOKUP t ON k1, k2"},
		{"row x = 1 | eval t = now() - 1 day", "ROW x = 1\n| EVAL t = (now() - 1 day)"},
		{"from a | inlinestats m = max(x) by g | stats", "FROM a\n| INLINESTATS m = max(x) BY g\n| STATS"},
		{"from a | keep ?f | eval x = ?f.y", "FROM a\n| KEEP ?f\n| EVAL x = ?f.y"},
	}
	for _, c := range cases {
		out := sfmt.Query(parseQuery(t, c.in))
		assert.Equal(t, c.out, out, c.in)
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	queries := []string{
		`from idx metadata _id | where not a > 1 or b in (1, 2) and c like "x*" | eval d = -(a + 1)::double`,
		"row a = -1::long, `weird name` = 1 | eval `last` = mv_first(a)",
		"explain [row a = [1, 2] | mv_expand a]",
	}
	for _, q := range queries {
		once := sfmt.Query(parseQuery(t, q))
		twice := sfmt.Query(parseQuery(t, once))
		assert.Equal(t, once, twice, q)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	q := `from a | where x > 1 and y == "z" | stats c = count(*) by k | sort c`
	assert.Equal(t, parseQuery(t, q), parseQuery(t, q))
}

func TestMetadataForms(t *testing.T) {
	current := parseQuery(t, "FROM a METADATA _id, _index").Source.(*ast.From)
	deprecated := parseQuery(t, "FROM a [METADATA _id, _index]").Source.(*ast.From)
	var names []string
	for _, m := range deprecated.Metadata {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"_id", "_index"}, names)
	assert.Equal(t, len(current.Metadata), len(deprecated.Metadata))
	for k := range current.Metadata {
		assert.Equal(t, current.Metadata[k].Name, deprecated.Metadata[k].Name)
	}
	assert.Equal(t, sfmt.Query(&ast.Query{Source: current}), sfmt.Query(&ast.Query{Source: deprecated}))
}

func TestFieldAssignmentSpeculation(t *testing.T) {
	row := parseQuery(t, "row a = 1, b == 2, c").Source.(*ast.Row)
	require.Len(t, row.Fields, 3)
	assert.Equal(t, "a", row.Fields[0].Name.Name())
	assert.Nil(t, row.Fields[1].Name)
	assert.IsType(t, &ast.Comparison{}, row.Fields[1].Expr)
	assert.Nil(t, row.Fields[2].Name)
}

func TestFunctionCallVersusName(t *testing.T) {
	call, ok := parseExpr(t, "count(*)").(*ast.FunctionCall)
	require.True(t, ok)
	assert.True(t, call.Star)
	call, ok = parseExpr(t, "f()").(*ast.FunctionCall)
	require.True(t, ok)
	assert.Empty(t, call.Args)
	name, ok := parseExpr(t, "f.g").(*ast.QualifiedName)
	require.True(t, ok)
	assert.Len(t, name.Parts, 2)
}

func errorList(t *testing.T, err error) srcfiles.ErrorList {
	var list srcfiles.ErrorList
	require.True(t, errors.As(err, &list), "%v", err)
	return list
}

func TestMultipleErrors(t *testing.T) {
	_, err := parser.ParseQuery("from a | where | eval x = | keep b")
	list := errorList(t, err)
	require.Len(t, list, 2)
	assert.Contains(t, list[0].Msg, "mismatched input '|'")
	assert.Equal(t, 15, list[0].Pos)
	assert.Equal(t, 26, list[1].Pos)
}

func TestErrorMessages(t *testing.T) {
	cases := []struct{ in, msg string }{
		{"where a", "mismatched input 'where' expecting {'explain', 'from', 'meta', 'metrics', 'row', 'show'}"},
		{"row a = 1 | from b", "mismatched input 'from' expecting {'dissect', 'drop', 'enrich', 'eval', 'grok', 'inlinestats', 'keep', 'limit', 'lookup', 'mv_expand', 'rename', 'sort', 'stats', 'where'}"},
		{"row a = [1, true]", "mismatched input 'true' expecting {INTEGER_LITERAL, DECIMAL_LITERAL}"},
		{"row a = 1 2", "mismatched input '2' expecting {<EOF>, '|'}"},
		{"show functions", "mismatched input 'functions' expecting 'info'"},
		{"row a = 1 # | keep a", "token recognition error at: '#'"},
		{"   ", "query cannot be empty"},
	}
	for _, c := range cases {
		_, err := parser.ParseQuery(c.in)
		list := errorList(t, err)
		require.NotEmpty(t, list, c.in)
		assert.Equal(t, c.msg, list[0].Msg, c.in)
	}
}

func TestExplainRecovery(t *testing.T) {
	_, err := parser.ParseQuery("explain [from a | where ] | limit 1")
	list := errorList(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Msg, "mismatched input ']'")
}

func TestErrorRendering(t *testing.T) {
	_, err := parser.ParseQuery("row a = 1\n| eval b = )")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at line 2, column 12:\n| eval b = )\n           ~")
}
