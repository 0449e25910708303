package ztest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromYAMLUnknownField(t *testing.T) {
	_, err := FromYAML(strings.NewReader("query: ROW a = 1\nouptut: x\n"))
	assert.ErrorContains(t, err, "ouptut")
}

func TestRunQuery(t *testing.T) {
	z, err := FromYAML(strings.NewReader(`
query: FROM t | SORT n | KEEP n
input:
  t: |
    {"n":2}
    {"n":1}
`))
	require.NoError(t, err)
	out, warnings, err := z.RunQuery(context.Background(), "csv", false)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "n\n1\n2\n", out)
}

func TestRunInternalReportsDiff(t *testing.T) {
	z := &ZTest{Query: "ROW a = 1", Format: "csv", Output: "a\n2\n"}
	err := z.RunInternal(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected and actual output differ")
}

func TestCheckRequiresOutputsForScript(t *testing.T) {
	z := &ZTest{Script: "true"}
	assert.Error(t, z.check())
}
