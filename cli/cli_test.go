package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	var b Bytes
	require.NoError(t, b.Set("64KiB"))
	assert.EqualValues(t, 64*1024, b.Bytes)
	require.NoError(t, b.Set("2MiB"))
	assert.EqualValues(t, 2*1024*1024, b.Bytes)
	assert.Error(t, b.Set("lots"))
}
