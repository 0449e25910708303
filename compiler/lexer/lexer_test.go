package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	var out []Kind
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestLexModes(t *testing.T) {
	toks := Tokenize(`FROM logs-*, "idx" METADATA _id | where a.b >= 1.5e3 AND x::long != ?p`)
	assert.Equal(t, []Kind{
		From, SourceName, Comma, QuotedString, Metadata, SourceName, Pipe,
		Where, Identifier, Dot, Identifier, Gte, Decimal, And,
		Identifier, Cast, Identifier, Neq, NamedParam, EOF,
	}, kinds(toks))
	assert.Equal(t, "logs-*", toks[1].Text)
	assert.Equal(t, "?p", toks[18].Text)
}

func TestLexCommandKeywordsOnlyAtStageStart(t *testing.T) {
	toks := Tokenize("row where = 1 | WHERE where")
	assert.Equal(t, []Kind{Row, Identifier, Assign, Integer, Pipe, Where, Identifier, EOF}, kinds(toks))
}

func TestLexMetrics(t *testing.T) {
	toks := Tokenize("METRICS a, b max(x) BY y")
	assert.Equal(t, []Kind{
		Metrics, SourceName, Comma, SourceName,
		Identifier, LParen, Identifier, RParen, By, Identifier, EOF,
	}, kinds(toks))
}

func TestLexExplain(t *testing.T) {
	toks := Tokenize("EXPLAIN [ROW a = [1, 2] | keep a] | limit 1")
	assert.Equal(t, []Kind{
		Explain, LBracket, Row, Identifier, Assign, LBracket, Integer, Comma,
		Integer, RBracket, Pipe, Keep, Identifier, RBracket, Pipe, Limit, Integer, EOF,
	}, kinds(toks))
}

func TestLexDeprecatedMetadata(t *testing.T) {
	toks := Tokenize("from idx [metadata _id, _index]")
	assert.Equal(t, []Kind{From, SourceName, LBracket, Metadata, SourceName, Comma, SourceName, RBracket, EOF}, kinds(toks))
}

func TestLexStringsAndComments(t *testing.T) {
	toks := Tokenize("row s = \"a\\\"b\" /* c /* nested */ */, t = \"\"\"raw \"q\" \"\"\" // tail")
	require.Equal(t, []Kind{Row, Identifier, Assign, QuotedString, Comma, Identifier, Assign, QuotedString, EOF}, kinds(toks))
	assert.Equal(t, `"a\"b"`, toks[3].Text)
	assert.Equal(t, `"""raw "q" """`, toks[7].Text)
}

func TestLexIllegalContinues(t *testing.T) {
	toks := Tokenize("row a = 1 # 2 | keep `we``ird`")
	assert.Equal(t, []Kind{Row, Identifier, Assign, Integer, Illegal, Integer, Pipe, Keep, QuotedIdentifier, EOF}, kinds(toks))
	assert.Equal(t, "#", toks[4].Text)
}

func TestLexPositions(t *testing.T) {
	toks := Tokenize("row a = 1\n| eval b = a")
	eval := toks[5]
	require.Equal(t, Eval, eval.Kind)
	assert.Equal(t, 2, eval.Line)
	assert.Equal(t, 3, eval.Column)
	assert.Equal(t, 12, eval.Pos)
	assert.Equal(t, 16, eval.End)
}

func TestLexResume(t *testing.T) {
	queries := []string{
		`FROM logs-*, "idx" METADATA _id | where a.b >= 1.5e3 AND x::long != ?p`,
		"EXPLAIN [ROW a = [1, 2] | keep a] | limit 1",
		"METRICS a, b max(x) BY y | SORT y DESC NULLS LAST",
		"from idx [metadata _id] | enrich p on k with v | lookup t on k",
		"row a = \"x\" /* c */ | eval b = mv_zip(a, a, \"-\") // end",
	}
	for _, q := range queries {
		toks := Tokenize(q)
		for k, tok := range toks {
			assert.Equal(t, toks[k:], Resume(q, tok).All(), "query %q token %d", q, k)
		}
	}
}

func TestSoftKeyword(t *testing.T) {
	toks := Tokenize("rename a AS b")
	assert.True(t, toks[2].Is("as"))
	assert.False(t, toks[1].Is("as"))
}
