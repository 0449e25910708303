package catalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/pkg/storage"
	"github.com/brimdata/esql/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	assert.True(t, catalog.Match("logs", "logs"))
	assert.True(t, catalog.Match("logs-*", "logs-2024"))
	assert.True(t, catalog.Match("*", "anything"))
	assert.False(t, catalog.Match("logs-*", "metrics"))
	assert.False(t, catalog.Match("l?gs", "logs"))
}

func TestLoadJSON(t *testing.T) {
	const input = `
{"a": 1, "b": {"c": "x"}, "tags": ["p", "q"]}
{"a": 3000000000, "d": true, "@timestamp": "2024-01-02T03:04:05Z"}
{"a": null, "b": {"c": 2}}
`
	m := catalog.NewMemory()
	require.NoError(t, m.Load("docs", "ndjson", strings.NewReader(input)))
	index, err := m.Index("docs")
	require.NoError(t, err)
	assert.Equal(t, 3, index.Len())
	assert.Equal(t, vector.Schema{
		{Name: "@timestamp", Type: esql.TypeDatetime},
		{Name: "a", Type: esql.TypeLong},
		{Name: "b.c", Type: esql.TypeKeyword},
		{Name: "d", Type: esql.TypeBoolean},
		{Name: "tags", Type: esql.TypeKeyword},
	}, index.Schema)
	require.Len(t, index.Pages, 1)
	assert.Equal(t, [][]any{
		{nil, int64(1), "x", nil, []any{"p", "q"}},
		{int64(1704164645000), int64(3000000000), nil, true, nil},
		{nil, nil, "2", nil, nil},
	}, index.Pages[0].Rows())
}

func TestLoadCSV(t *testing.T) {
	const input = "name,n,score\nalice,1,1.5\nbob,,2\n"
	m := catalog.NewMemory()
	m.PageSize = 1
	require.NoError(t, m.Load("people", "csv", strings.NewReader(input)))
	index, err := m.Index("people")
	require.NoError(t, err)
	assert.Equal(t, vector.Schema{
		{Name: "n", Type: esql.TypeInteger},
		{Name: "name", Type: esql.TypeKeyword},
		{Name: "score", Type: esql.TypeDouble},
	}, index.Schema)
	require.Len(t, index.Pages, 2)
	assert.Equal(t, [][]any{{nil, "bob", 2.0}}, index.Pages[1].Rows())
}

func TestResolve(t *testing.T) {
	m := catalog.NewMemory()
	for _, name := range []string{"logs-b", "logs-a", "metrics"} {
		require.NoError(t, m.AddDocuments(name, []map[string]any{{"x": 1}}))
	}
	names, err := m.Resolve("logs-*")
	require.NoError(t, err)
	assert.Equal(t, []string{"logs-a", "logs-b"}, names)
	_, err = m.Index("nope")
	assert.ErrorIs(t, err, catalog.ErrNoSuchIndex)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.ndjson"), []byte(`{"name":"alice"}`+"\n"), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "teams.csv"), []byte("team,size\nred,2\n"), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# data\n"), 0666))
	m := catalog.NewMemory()
	require.NoError(t, m.LoadDir(t.Context(), storage.NewLocalEngine(), storage.MustParseURI(dir)))
	assert.Equal(t, []string{"people", "teams"}, m.Names())
	index, err := m.Index("teams")
	require.NoError(t, err)
	assert.Equal(t, vector.Schema{
		{Name: "size", Type: esql.TypeInteger},
		{Name: "team", Type: esql.TypeKeyword},
	}, index.Schema)
}
