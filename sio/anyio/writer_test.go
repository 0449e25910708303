package anyio_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/brimdata/esql"
	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/sio/anyio"
	"github.com/brimdata/esql/sio/arrowio"
	"github.com/brimdata/esql/sio/csvio"
	"github.com/brimdata/esql/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var schema = vector.Schema{
	{Name: "a", Type: esql.TypeInteger},
	{Name: "b", Type: esql.TypeKeyword},
}

func testPage(multi bool) *vector.Page {
	a := vector.NewBuilder[int32](esql.TypeInteger, 2)
	a.Append(1)
	a.AppendNull()
	b := vector.NewBuilder[string](esql.TypeKeyword, 2)
	b.Append("x")
	if multi {
		b.BeginPositionEntry()
		b.Append("p")
		b.Append("q")
		b.EndPositionEntry()
	} else {
		b.Append("y")
	}
	return vector.NewPage(schema, []vector.Block{a.Build(), b.Build()}, 2)
}

func write(t *testing.T, opts anyio.WriterOpts, pages ...*vector.Page) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := anyio.NewWriter(sio.NopCloser(&buf), schema, opts)
	require.NoError(t, err)
	for _, page := range pages {
		require.NoError(t, w.Write(page))
	}
	require.NoError(t, sio.Finish(w, sio.Summary{Took: 5 * time.Millisecond}))
	require.NoError(t, w.Close())
	return buf.String()
}

func TestJSON(t *testing.T) {
	const columns = `{"columns":[{"name":"a","type":"integer"},{"name":"b","type":"keyword"}],`
	assert.Equal(t, columns+`"values":[[1,"x"],[null,["p","q"]]],"took":5}`+"\n",
		write(t, anyio.WriterOpts{Format: "json"}, testPage(true)))
	assert.Equal(t, columns+`"values":[[1,null],["x",["p","q"]]],"took":5}`+"\n",
		write(t, anyio.WriterOpts{Format: "json", Columnar: true}, testPage(true)))
	assert.Equal(t, columns+`"values":[],"took":5}`+"\n",
		write(t, anyio.WriterOpts{Format: "json"}))
	assert.Equal(t, `{"id":"abc","is_running":false,`+columns[1:]+`"values":[],"took":5}`+"\n",
		write(t, anyio.WriterOpts{Format: "json", Async: &sio.Async{ID: "abc"}}))
}

func TestYAML(t *testing.T) {
	for _, columnar := range []bool{false, true} {
		out := write(t, anyio.WriterOpts{Format: "yaml", Columnar: columnar}, testPage(true))
		var doc struct {
			Columns []map[string]string `yaml:"columns"`
			Values  [][]any             `yaml:"values"`
			Took    int                 `yaml:"took"`
		}
		require.NoError(t, yaml.Unmarshal([]byte(out), &doc), out)
		assert.Equal(t, []map[string]string{{"name": "a", "type": "integer"}, {"name": "b", "type": "keyword"}}, doc.Columns)
		assert.Equal(t, 5, doc.Took)
		if columnar {
			assert.Equal(t, [][]any{{1, nil}, {"x", []any{"p", "q"}}}, doc.Values)
		} else {
			assert.Equal(t, [][]any{{1, "x"}, {nil, []any{"p", "q"}}}, doc.Values)
		}
	}
	out := write(t, anyio.WriterOpts{Format: "yaml"})
	assert.Contains(t, out, "values: []\n")
}

func TestCSV(t *testing.T) {
	assert.Equal(t, "a,b\n1,x\n,\"[p, q]\"\n", write(t, anyio.WriterOpts{Format: "csv"}, testPage(true)))
	assert.Equal(t, "a;b\n1;x\n;y\n", write(t, anyio.WriterOpts{Format: "csv", CSV: csvOpts(';', false)}, testPage(false)))
	assert.Equal(t, "1\tx\n\t[p, q]\n", write(t, anyio.WriterOpts{Format: "tsv", CSV: csvOpts(0, true)}, testPage(true)))
	assert.Equal(t, "a,b\n", write(t, anyio.WriterOpts{Format: "csv"}))
}

func TestTxt(t *testing.T) {
	const expected = "" +
		"       a       |       b       \n" +
		"---------------+---------------\n" +
		"1              |x              \n" +
		"null           |[p, q]         \n"
	assert.Equal(t, expected, write(t, anyio.WriterOpts{Format: "txt"}, testPage(true)))
}

func TestArrow(t *testing.T) {
	out := write(t, anyio.WriterOpts{Format: "arrow"}, testPage(false))
	r, err := ipc.NewReader(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	defer r.Release()
	require.True(t, r.Next())
	rec := r.Record()
	assert.Equal(t, int64(2), rec.NumRows())
	a := rec.Column(0).(*array.Int32)
	assert.Equal(t, int32(1), a.Value(0))
	assert.True(t, a.IsNull(1))
	b := rec.Column(1).(*array.String)
	assert.Equal(t, "y", b.Value(1))
	assert.False(t, r.Next())

	var buf bytes.Buffer
	w, err := anyio.NewWriter(sio.NopCloser(&buf), schema, anyio.WriterOpts{Format: "arrow"})
	require.NoError(t, err)
	assert.ErrorIs(t, w.Write(testPage(true)), arrowio.ErrMultiValue)
}

func TestUnknownFormat(t *testing.T) {
	_, err := anyio.NewWriter(sio.NopCloser(&bytes.Buffer{}), schema, anyio.WriterOpts{Format: "xml"})
	assert.EqualError(t, err, "unknown format: xml")
}

func csvOpts(delim rune, noHeader bool) csvio.WriterOpts {
	return csvio.WriterOpts{Delim: delim, NoHeader: noHeader}
}
