package queryflags

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func parse(t *testing.T, args ...string) (*Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return &f, f.Init()
}

func TestFlags(t *testing.T) {
	f, err := parse(t, "-c", "ROW a = ?n", "-I", "a.esql", "-I", "b.esql", "-P", `[{"n":1}]`, "-locale", "tr")
	require.NoError(t, err)
	assert.Equal(t, "ROW a = ?n", f.Query)
	assert.Equal(t, Includes{"a.esql", "b.esql"}, f.Includes)
	assert.Equal(t, language.Turkish, f.Locale)
	p, ok := f.Params.Lookup("n")
	require.True(t, ok)
	assert.Equal(t, "n", p.Name)
}

func TestFlagErrors(t *testing.T) {
	_, err := parse(t, "-P", `{"n":1}`)
	assert.ErrorContains(t, err, "-P: ")
	_, err = parse(t, "-locale", "!!")
	assert.ErrorContains(t, err, "-locale: ")
}
