package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brimdata/esql/api"
	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const people = `{"name":"alice","age":30,"team":"red"}
{"name":"bob","age":25,"team":"blue"}
{"name":"carol","team":"red"}
`

func newCore(t *testing.T) *service.Core {
	cat := catalog.NewMemory()
	require.NoError(t, cat.Load("people", "ndjson", strings.NewReader(people)))
	core, err := service.NewCore(context.Background(), service.Config{
		Catalog: cat,
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(core.Shutdown)
	return core
}

func do(t *testing.T, core *service.Core, method, url, body string, hdr ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	core.ServeHTTP(w, req)
	return w.Result()
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func requireError(t *testing.T, res *http.Response, status int, typ, reason string) {
	t.Helper()
	require.Equal(t, status, res.StatusCode)
	var e api.Error
	require.NoError(t, json.Unmarshal([]byte(readBody(t, res)), &e))
	assert.Equal(t, typ, e.Type)
	assert.Equal(t, status, e.Status)
	assert.Contains(t, e.Reason, reason)
}

func TestQueryJSON(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "POST", "/_query", `{"query":"FROM people | KEEP name | SORT name | LIMIT 2"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, api.MediaTypeJSON, res.Header.Get("Content-Type"))
	assert.NotEmpty(t, res.Header.Get(api.RequestIDHeader))
	body := readBody(t, res)
	assert.True(t, strings.HasPrefix(body, `{"columns":[{"name":"name","type":"keyword"}],"values":[["alice"],["bob"]],"took":`), body)
	assert.NotEmpty(t, res.Trailer.Get(api.TookHeader))
}

func TestQueryCSV(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "POST", "/_query?format=csv&delimiter=;", `{"query":"FROM people | WHERE team == \"red\" | KEEP name, team | SORT name"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Equal(t, "name;team\nalice;red\ncarol;red\n", readBody(t, res))
}

func TestQueryDelimiterEscaped(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "POST", "/_query?format=csv&delimiter=%7C", `{"query":"ROW a = 1, b = 2"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "a|b\n1|2\n", readBody(t, res))
	res = do(t, core, "POST", "/_query?delimiter=%3B&format=csv", `{"query":"ROW a = 1, b = 2"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "a;b\n1;2\n", readBody(t, res))
	requireError(t, do(t, core, "POST", "/_query?format=json&delimiter=;", `{"query":"ROW a = 1"}`),
		http.StatusBadRequest, api.IllegalArgument, "[delimiter]")
}

func TestQueryMalformedParams(t *testing.T) {
	core := newCore(t)
	requireError(t, do(t, core, "POST", "/_query", `{"query":"ROW a = ?","params":[1,}`),
		http.StatusBadRequest, api.ParsingException, "Failed to parse params")
	requireError(t, do(t, core, "POST", "/_query", `{"query":"ROW a = ?x","params":[{"x":1,}]}`),
		http.StatusBadRequest, api.ParsingException, "Failed to parse params")
}

func TestQueryAccept(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "POST", "/_query?header=absent", `{"query":"ROW a = 1, b = \"x\""}`, "Accept", "text/tab-separated-values")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "1\tx\n", readBody(t, res))
}

func TestQueryParams(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "POST", "/_query?format=csv", `{"query":"ROW a = ?x, b = ?y","params":[{"x":1},{"y":"z"}]}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "a,b\n1,z\n", readBody(t, res))
}

func TestQueryErrors(t *testing.T) {
	core := newCore(t)
	requireError(t, do(t, core, "POST", "/_query", `{"query":"FROM people | WHERE"}`),
		http.StatusBadRequest, api.ParsingException, "line 1")
	requireError(t, do(t, core, "POST", "/_query", `{"query":"FROM people | KEEP nmae"}`),
		http.StatusBadRequest, api.VerificationException, "Unknown column [nmae]")
	requireError(t, do(t, core, "POST", "/_query", `{"query":"FROM nope"}`),
		http.StatusBadRequest, api.VerificationException, "Unknown index [nope]")
	requireError(t, do(t, core, "POST", "/_query?delimiter=;", `{"query":"ROW a = 1"}`),
		http.StatusBadRequest, api.IllegalArgument, "[delimiter]")
	requireError(t, do(t, core, "POST", "/_query?format=txt", `{"query":"ROW a = 1","columnar":true}`),
		http.StatusBadRequest, api.IllegalArgument, "Invalid use of [columnar] argument")
	requireError(t, do(t, core, "POST", "/_query", `{"query":"ROW a = 1","keep_alive":"1d"}`),
		http.StatusBadRequest, api.ParsingException, "unknown field [keep_alive]")
	requireError(t, do(t, core, "POST", "/_query", `{"query":"ROW a = ?1","params":[{"1":2}]}`),
		http.StatusBadRequest, api.ParsingException, "")
	requireError(t, do(t, core, "POST", "/_query", `{"query":"ROW a = 1","locale":"!!"}`),
		http.StatusBadRequest, api.IllegalArgument, "unsupported locale")
	requireError(t, do(t, core, "GET", "/nope", ""),
		http.StatusNotFound, api.ResourceNotFound, "no handler found for uri [/nope]")
}

func TestQueryWarnings(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "POST", "/_query", `{"query":"ROW a = [1, 2] | EVAL b = a + 1"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	readBody(t, res)
	warnings := append(res.Header.Values(api.WarningHeader), res.Trailer.Values(api.WarningHeader)...)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "evaluation of [a + 1] failed")
	assert.True(t, strings.HasPrefix(warnings[0], "299 "))
	assert.Contains(t, warnings[1], "single-value function encountered multi-value")
}

func TestAsync(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "POST", "/_query/async", `{"query":"FROM people | STATS n = COUNT(*)","wait_for_completion_timeout":"30s","keep_on_completion":true}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	id := res.Header.Get(api.AsyncIDHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, "false", res.Header.Get(api.AsyncRunningHeader))
	body := readBody(t, res)
	assert.True(t, strings.HasPrefix(body, `{"id":"`+id+`","is_running":false,"columns":[{"name":"n","type":"long"}],"values":[[3]],"took":`), body)

	res = do(t, core, "GET", "/_query/async/"+id+"?format=csv", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "n\n3\n", readBody(t, res))

	res = do(t, core, "DELETE", "/_query/async/"+id, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"acknowledged":true}`, readBody(t, res))

	requireError(t, do(t, core, "GET", "/_query/async/"+id, ""), http.StatusNotFound, api.ResourceNotFound, id)
	requireError(t, do(t, core, "DELETE", "/_query/async/"+id, ""), http.StatusNotFound, api.ResourceNotFound, id)
}

func TestAsyncNotKept(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "POST", "/_query/async", `{"query":"ROW a = 1","wait_for_completion_timeout":"30s"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, res.Header.Get(api.AsyncIDHeader))
	body := readBody(t, res)
	assert.True(t, strings.HasPrefix(body, `{"columns":[{"name":"a","type":"integer"}],"values":[[1]]`), body)
}

func TestVersionAndMetrics(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "GET", "/version", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var v api.VersionResponse
	require.NoError(t, json.Unmarshal([]byte(readBody(t, res)), &v))
	assert.NotEmpty(t, v.Version)

	do(t, core, "POST", "/_query", `{"query":"ROW a = 1"}`)
	do(t, core, "POST", "/_query", `{"query":"ROW a = nope"}`)
	res = do(t, core, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := readBody(t, res)
	assert.Contains(t, body, `esql_service_queries_total{outcome="ok"} 1`)
	assert.Contains(t, body, `esql_service_queries_total{outcome="invalid"} 1`)
	assert.Contains(t, body, "esql_service_query_duration_seconds_count 2")
}

func TestRequestIDEcho(t *testing.T) {
	core := newCore(t)
	res := do(t, core, "GET", "/version", "", api.RequestIDHeader, "abc")
	assert.Equal(t, "abc", res.Header.Get(api.RequestIDHeader))
}
