package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/brimdata/esql/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*session, *bytes.Buffer, *bytes.Buffer) {
	cat := catalog.NewMemory()
	require.NoError(t, cat.Load("people", "ndjson", strings.NewReader(`{"name":"alice","age":30}`+"\n")))
	var out, errOut bytes.Buffer
	return &session{catalog: cat, format: "csv", out: &out, errOut: &errOut}, &out, &errOut
}

func TestFeed(t *testing.T) {
	s, _, _ := newSession(t)
	var buf []string
	q, done := s.feed(&buf, "FROM people")
	assert.False(t, done)
	q, done = s.feed(&buf, "| KEEP name;")
	require.True(t, done)
	assert.Equal(t, "FROM people\n| KEEP name", q)
	assert.Empty(t, buf)

	q, done = s.feed(&buf, "  .format json")
	require.True(t, done)
	assert.Equal(t, ".format json", q)
}

func TestRunQuery(t *testing.T) {
	s, out, errOut := newSession(t)
	assert.False(t, s.run(context.Background(), "FROM people | KEEP name"))
	assert.Equal(t, "name\nalice\n", out.String())
	assert.Empty(t, errOut.String())

	assert.False(t, s.run(context.Background(), "FROM nope"))
	assert.Contains(t, errOut.String(), "Unknown index [nope]")
}

func TestDirectives(t *testing.T) {
	s, out, errOut := newSession(t)
	assert.False(t, s.run(context.Background(), ".format yaml"))
	assert.Equal(t, "yaml", s.format)
	assert.False(t, s.run(context.Background(), ".format xml"))
	assert.Contains(t, errOut.String(), "usage: .format")
	assert.False(t, s.run(context.Background(), ".indices"))
	assert.Equal(t, "people\n", out.String())
	assert.True(t, s.run(context.Background(), ".exit"))
}

func TestComplete(t *testing.T) {
	s, _, _ := newSession(t)
	assert.Equal(t, []string{"FROM people | WHERE"}, s.complete("FROM people | WH"))
	assert.Contains(t, s.complete("ROW a = mv_z"), "ROW a = mv_zip(")
	assert.Contains(t, s.complete("FROM peo"), "FROM people")
	assert.Nil(t, s.complete("FROM "))
}
