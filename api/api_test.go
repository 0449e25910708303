package api

import (
	"testing"
	"time"

	"github.com/brimdata/esql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryRequest(t *testing.T) {
	req, err := ParseQueryRequest([]byte(`{
  "query": "FROM people | WHERE age > ?n",
  "params": [{"n": 30}],
  "columnar": true,
  "locale": "fr",
  "filter": {"match_all": {}},
  "tables": {"colors": {"team": {"keyword": ["red", "blue"]}, "n": {"integer": [1, null]}}}
}`), false)
	require.NoError(t, err)
	assert.Equal(t, "FROM people | WHERE age > ?n", req.Query)
	assert.True(t, req.Columnar)
	assert.Equal(t, "fr", req.Locale)
	assert.JSONEq(t, `{"match_all": {}}`, string(req.Filter))
	p, ok := req.Params.Lookup("n")
	require.True(t, ok)
	assert.Equal(t, esql.NewInteger(30), p.Value)
	colors := req.Tables["colors"]
	require.NotNil(t, colors)
	assert.Equal(t, []string{"team", "n"}, colors.Schema.Names())
	assert.Equal(t, [][]any{{"red", int32(1)}, {"blue", nil}}, colors.Rows())
	assert.Equal(t, DefaultWaitForCompletion, req.WaitForCompletionTimeout)
}

func TestParseAsyncQueryRequest(t *testing.T) {
	body := []byte(`{"query": "ROW a = 1", "wait_for_completion_timeout": "2s", "keep_alive": "1d", "keep_on_completion": true}`)
	req, err := ParseQueryRequest(body, true)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, req.WaitForCompletionTimeout)
	assert.Equal(t, 24*time.Hour, req.KeepAlive)
	assert.True(t, req.KeepOnCompletion)

	_, err = ParseQueryRequest(body, false)
	assert.ErrorContains(t, err, "unknown field [wait_for_completion_timeout]")
}

func TestParseQueryRequestErrors(t *testing.T) {
	cases := []struct{ body, err string }{
		{`{"columnar": true}`, "[esql_query] Required [query]"},
		{`{"query": "  "}`, "[query] is required"},
		{`{"query": "ROW a = 1", "bogus": 1}`, "unknown field [bogus]"},
		{`{"query": 1}`, "failed to parse field"},
		{`{"query": "ROW a = 1", "tables": {"t": {"a": {"keyword": ["x"]}, "b": {"keyword": []}}}}`, "has 0 values but expected 1"},
		{`[]`, "expected"},
	}
	for _, c := range cases {
		_, err := ParseQueryRequest([]byte(c.body), false)
		require.Error(t, err, c.body)
		assert.ErrorContains(t, err, c.err, c.body)
	}
}

func TestParseTimeValue(t *testing.T) {
	for s, d := range map[string]time.Duration{
		"30s":     30 * time.Second,
		"5d":      5 * 24 * time.Hour,
		"100ms":   100 * time.Millisecond,
		"2m":      2 * time.Minute,
		"-1":      0,
		"10nanos": 10,
	} {
		got, err := ParseTimeValue(s)
		require.NoError(t, err, s)
		assert.Equal(t, d, got, s)
	}
	_, err := ParseTimeValue("5x")
	assert.Error(t, err)
}

func TestMediaTypeToFormat(t *testing.T) {
	for s, format := range map[string]string{
		"":                                     "json",
		"*/*":                                  "json",
		"text/csv":                             "csv",
		"text/csv; charset=utf-8":              "csv",
		"text/plain":                           "txt",
		"application/x-yaml":                   "yaml",
		"image/png, text/tab-separated-values": "tsv",
	} {
		got, err := MediaTypeToFormat(s, "json")
		require.NoError(t, err, s)
		assert.Equal(t, format, got, s)
	}
	_, err := MediaTypeToFormat("image/png", "json")
	var unsupported *ErrUnsupportedMimeType
	assert.ErrorAs(t, err, &unsupported)
	mt, err := FormatToMediaType("tsv")
	require.NoError(t, err)
	assert.Equal(t, "text/tab-separated-values; charset=utf-8", mt)
}
