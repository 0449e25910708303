package srcfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSpan(t *testing.T) {
	list := Plain("row a = 1\n| eval b = ]")
	list.AddError("mismatched input ']'", 21, 21)
	err := list.Error()
	require.Error(t, err)
	expected := "mismatched input ']' at line 2, column 12:\n| eval b = ]\n           ~"
	assert.Equal(t, expected, err.Error())
	pos := list.Errors()[0].Position()
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 12, pos.Column)
}

func TestErrorPoint(t *testing.T) {
	list := Plain("from")
	list.AddError("missing source", 4, -1)
	assert.Equal(t, "missing source at line 1, column 5:\nfrom\n=== ^ ===", list.Error().Error())
}

func TestEmptyText(t *testing.T) {
	list := Plain("")
	list.AddError("empty query", 0, -1)
	assert.Equal(t, "empty query at line 1, column 1:\n\n^ ===", list.Error().Error())
}

func TestErrorInInclude(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.esql")
	require.NoError(t, os.WriteFile(path, []byte("from a\n| eval x = 1\n"), 0666))
	list, err := Concat([]string{path}, "| keep x")
	require.NoError(t, err)
	assert.Equal(t, "from a\n| eval x = 1\n\n| keep x", list.Text)
	list.AddError("bad eval", 9, 12)
	list.AddError("bad keep", 28, 28)
	errs := list.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, "bad eval in "+path+" at line 2, column 3:\n| eval x = 1\n  ~~~~", errs[0].Error())
	assert.Equal(t, "bad keep at line 1, column 8:\n| keep x\n       ~", errs[1].Error())
	assert.Equal(t, "2:3", errs[0].Position().String())
}

func TestPointer(t *testing.T) {
	assert.Equal(t, "^ ===", pointer(1))
	assert.Equal(t, "= ^ ===", pointer(3))
	assert.Equal(t, "     === ^ ===", pointer(10))
}
