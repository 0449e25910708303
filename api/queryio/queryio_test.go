package queryio_test

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/api/queryio"
	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/sio/anyio"
	"github.com/brimdata/esql/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var schema = vector.Schema{{Name: "n", Type: esql.TypeLong}}

type query struct {
	vector.Puller
	err      error
	canceled bool
}

func (*query) Schema() vector.Schema { return schema }

func (q *query) Pull(done bool) (*vector.Page, error) {
	if done {
		q.canceled = true
	}
	page, err := q.Puller.Pull(done)
	if page == nil && err == nil && !done {
		err = q.err
	}
	return page, err
}

func newQuery(npages int) *query {
	var pages []*vector.Page
	for i := range npages {
		b := vector.NewBuilder[int64](esql.TypeLong, 1)
		b.Append(int64(i))
		pages = append(pages, vector.NewPage(schema, []vector.Block{b.Build()}, 1))
	}
	return &query{Puller: vector.NewPuller(pages...)}
}

func drain(t *testing.T, s *queryio.Stream) []string {
	var chunks []string
	for {
		chunk, err := s.Pull(false)
		require.NoError(t, err)
		if chunk == nil {
			return chunks
		}
		chunks = append(chunks, string(chunk))
	}
}

func TestNegotiate(t *testing.T) {
	cases := []struct {
		opts   queryio.Options
		format string
		err    string
	}{
		{opts: queryio.Options{}, format: "json"},
		{opts: queryio.Options{Format: "csv", Accept: "application/yaml"}, format: "csv"},
		{opts: queryio.Options{Accept: "application/yaml"}, format: "yaml"},
		{opts: queryio.Options{Accept: "*/*", ContentType: "text/csv"}, format: "csv"},
		{opts: queryio.Options{ContentType: "application/x-www-form-urlencoded"}, format: "json"},
		{opts: queryio.Options{Accept: "image/png"}, err: "unsupported MIME type: image/png"},
		{opts: queryio.Options{Format: "xml"}, err: "invalid format [xml]"},
		{opts: queryio.Options{Format: "csv", Delimiter: ";"}, format: "csv"},
		{opts: queryio.Options{Format: "tsv", Delimiter: ";"}, err: "Invalid use of [delimiter] argument: only allowed with [csv] format, found [tsv]"},
		{opts: queryio.Options{Delimiter: ";"}, err: "Invalid use of [delimiter] argument: only allowed with [csv] format, found [json]"},
		{opts: queryio.Options{Format: "csv", Delimiter: `"`}, err: "illegal [delimiter] value"},
		{opts: queryio.Options{Format: "csv", Delimiter: ";;"}, err: "illegal [delimiter] value"},
		{opts: queryio.Options{Format: "tsv", Header: "absent"}, format: "tsv"},
		{opts: queryio.Options{Format: "txt", Header: "absent"}, err: "Invalid use of [header] argument"},
		{opts: queryio.Options{Format: "csv", Header: "maybe"}, err: "Invalid value for [header] argument"},
		{opts: queryio.Options{Format: "yaml", Columnar: true}, format: "yaml"},
		{opts: queryio.Options{Format: "txt", Columnar: true}, err: "Invalid use of [columnar] argument: cannot be used in combination with [txt, csv, tsv, arrow] formats"},
	}
	for _, c := range cases {
		opts, err := queryio.Negotiate(c.opts)
		if c.err != "" {
			var ferr *queryio.FormatError
			require.ErrorAs(t, err, &ferr, "%+v", c.opts)
			assert.Contains(t, err.Error(), c.err)
			continue
		}
		require.NoError(t, err, "%+v", c.opts)
		assert.Equal(t, c.format, opts.Format)
	}
	opts, err := queryio.Negotiate(queryio.Options{Format: "csv", Delimiter: ";", Header: "absent"})
	require.NoError(t, err)
	assert.Equal(t, ';', opts.CSV.Delim)
	assert.True(t, opts.CSV.NoHeader)
}

func TestStreamChunks(t *testing.T) {
	q := newQuery(50)
	s, err := queryio.NewStream(q, "ROW n = 1", anyio.WriterOpts{Format: "csv"}, 16, nil)
	require.NoError(t, err)
	chunks := drain(t, s)
	assert.Greater(t, len(chunks), 1)
	lines := strings.Split(strings.Join(chunks, ""), "\n")
	assert.Equal(t, "n", lines[0])
	assert.Equal(t, "49", lines[50])
	assert.False(t, q.canceled)
}

func TestStreamMatchesSingleRender(t *testing.T) {
	for _, opts := range []anyio.WriterOpts{
		{Format: "json"},
		{Format: "json", Columnar: true},
		{Format: "yaml"},
		{Format: "yaml", Columnar: true},
		{Format: "csv"},
		{Format: "tsv"},
		{Format: "txt"},
		{Format: "arrow"},
	} {
		s, err := queryio.NewStream(newQuery(7), "q", opts, 1, nil)
		require.NoError(t, err)
		streamed := strings.Join(drain(t, s), "")

		var buf bytes.Buffer
		w, err := anyio.NewWriter(sio.NopCloser(&buf), schema, opts)
		require.NoError(t, err)
		require.NoError(t, sio.Copy(w, newQuery(7)))
		require.NoError(t, sio.Finish(w, sio.Summary{Took: s.Took()}))
		require.NoError(t, w.Close())
		assert.Equal(t, buf.String(), streamed, "%+v", opts)
	}
}

func TestStreamTookAndLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := queryio.NewStream(newQuery(1), "FROM x", anyio.WriterOpts{}, 0, zap.New(core))
	require.NoError(t, err)
	assert.Zero(t, s.Took())
	body := strings.Join(drain(t, s), "")
	assert.Contains(t, body, `"values":[[0]],"took":`)
	entries := logs.FilterMessage("query executed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "FROM x", fields["query"])
	assert.Equal(t, s.Took().Milliseconds(), fields["took_ms"])
	assert.Equal(t, s.Took(), fields["took"])
}

func TestStreamEmpty(t *testing.T) {
	s, err := queryio.NewStream(newQuery(0), "q", anyio.WriterOpts{Format: "json"}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"columns":[{"name":"n","type":"long"}],"values":[],"took":` + strconv.FormatInt(s.Took().Milliseconds(), 10) + "}\n"}, drain(t, s))
}

func TestStreamEarlyError(t *testing.T) {
	q := newQuery(0)
	q.err = errors.New("boom")
	core, logs := observer.New(zapcore.InfoLevel)
	_, err := queryio.NewStream(q, "q", anyio.WriterOpts{}, 0, zap.New(core))
	assert.EqualError(t, err, "boom")
	require.Len(t, logs.FilterMessage("query failed").All(), 1)
}

func TestStreamCancel(t *testing.T) {
	q := newQuery(10)
	s, err := queryio.NewStream(q, "q", anyio.WriterOpts{Format: "csv"}, 1, nil)
	require.NoError(t, err)
	chunk, err := s.Pull(false)
	require.NoError(t, err)
	assert.NotEmpty(t, chunk)
	chunk, err = s.Pull(true)
	require.NoError(t, err)
	assert.Nil(t, chunk)
	assert.True(t, q.canceled)
	chunk, err = s.Pull(false)
	require.NoError(t, err)
	assert.Nil(t, chunk)
}
