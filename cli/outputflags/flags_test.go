package outputflags

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &f, f.Init()
}

func TestInit(t *testing.T) {
	f, err := parse(t, "-f", "csv", "-delim", ";", "-noheader")
	require.NoError(t, err)
	assert.Equal(t, ';', f.CSV.Delim)
	assert.True(t, f.CSV.NoHeader)

	f, err = parse(t, "-o", filepath.Join(t.TempDir(), "out.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "yaml", f.Format)

	_, err = parse(t, "-f", "json", "-delim", ";")
	assert.EqualError(t, err, "-delim requires csv output")
	_, err = parse(t, "-f", "txt", "-noheader")
	assert.EqualError(t, err, "-noheader requires csv or tsv output")
	_, err = parse(t, "-f", "csv", "-columnar")
	assert.EqualError(t, err, "-columnar cannot be used with csv output")
	_, err = parse(t, "-f", "csv", "-delim", `"`)
	assert.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	f, err := parse(t, "-o", path)
	require.NoError(t, err)
	schema := vector.Schema{{Name: "a", Type: esql.TypeKeyword}}
	w, err := f.Open(schema)
	require.NoError(t, err)
	b := vector.NewBuilder[string](esql.TypeKeyword, 1)
	b.Append("x")
	require.NoError(t, w.Write(vector.NewPage(schema, []vector.Block{b.Build()}, 1)))
	require.NoError(t, sio.Finish(w, sio.Summary{Took: time.Millisecond}))
	require.NoError(t, w.Close())
	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nx\n", string(out))
}
