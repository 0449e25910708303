package vector

import (
	"testing"

	"github.com/brimdata/esql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderPositions(t *testing.T) {
	b := NewBuilder[string](esql.TypeKeyword, 4)
	b.Append("a")
	b.AppendNull()
	b.BeginPositionEntry()
	b.Append("b")
	b.Append("c")
	b.EndPositionEntry()
	b.BeginPositionEntry()
	b.EndPositionEntry()
	block := b.Build()
	require.Equal(t, 4, block.Len())
	assert.Equal(t, 1, block.ValueCount(0))
	assert.True(t, block.IsNull(1))
	assert.Equal(t, 0, block.ValueCount(1))
	assert.Equal(t, 1, block.FirstValueIndex(2))
	assert.Equal(t, 2, block.ValueCount(2))
	assert.True(t, block.IsNull(3))
	assert.Equal(t, []any{"b", "c"}, Get(block, 2))
	assert.Nil(t, Get(block, 3))
}

func TestBuilderPanicsOnNullInEntry(t *testing.T) {
	b := NewBuilder[int32](esql.TypeInteger, 1)
	b.BeginPositionEntry()
	assert.Panics(t, func() { b.AppendNull() })
}

func TestPick(t *testing.T) {
	b := NewBuilder[int64](esql.TypeLong, 3)
	b.Append(1)
	b.BeginPositionEntry()
	b.Append(2)
	b.Append(3)
	b.EndPositionEntry()
	b.AppendNull()
	picked := b.Build().Pick([]uint32{2, 1})
	assert.Equal(t, 2, picked.Len())
	assert.True(t, picked.IsNull(0))
	assert.Equal(t, []any{int64(2), int64(3)}, Get(picked, 1))
}

func TestPageWith(t *testing.T) {
	a := NewConst(esql.NewInteger(1), 2)
	x := NewConst(esql.NewKeyword("x"), 2)
	page := NewPage(Schema{{"a", esql.TypeInteger}, {"b", esql.TypeInteger}}, []Block{a, a}, 2)
	page = page.With(Column{"a", esql.TypeKeyword}, x)
	assert.Equal(t, []string{"b", "a"}, page.Schema.Names())
	assert.Equal(t, [][]any{{int32(1), "x"}, {int32(1), "x"}}, page.Rows())
}

func TestPullerDone(t *testing.T) {
	page := NewPage(nil, nil, 0)
	p := NewPuller(page, page)
	got, err := p.Pull(false)
	require.NoError(t, err)
	assert.Same(t, page, got)
	got, err = p.Pull(true)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = p.Pull(false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNullBlock(t *testing.T) {
	b := NewNull(3)
	assert.Equal(t, esql.TypeNull, b.Type())
	assert.Equal(t, 3, b.Len())
	for pos := range 3 {
		assert.True(t, b.IsNull(pos))
		assert.Zero(t, b.ValueCount(pos))
	}
	assert.True(t, b.Pick([]uint32{2, 0}).IsNull(1))
}
