// Package vector implements the columnar blocks that flow between the
// operators of a running query.  A block holds one column for a batch of
// rows.  Each row position owns a run of values in a flat value array,
// so a position may hold no value (null), one value, or a multi-value.
package vector

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/brimdata/esql"
)

type Scalar interface {
	bool | int32 | int64 | uint64 | float64 | string
}

type Block interface {
	Type() esql.DataType
	// Len returns the number of row positions.
	Len() int
	ValueCount(pos int) int
	FirstValueIndex(pos int) int
	IsNull(pos int) bool
	// Any returns the value at flat value index i.
	Any(i int) any
	// Pick returns a new block holding the positions listed in index.
	Pick(index []uint32) Block
}

// Values is the block implementation for every scalar Go representation.
// The values of position i are values[offsets[i]:offsets[i+1]] and nulls
// holds the positions with no value.  A nil nulls means there are none.
type Values[T Scalar] struct {
	typ     esql.DataType
	values  []T
	offsets []uint32
	nulls   *roaring.Bitmap
}

var _ Block = (*Values[int64])(nil)

func NewValues[T Scalar](typ esql.DataType, values []T, offsets []uint32, nulls *roaring.Bitmap) *Values[T] {
	return &Values[T]{typ: typ, values: values, offsets: offsets, nulls: nulls}
}

func (v *Values[T]) Type() esql.DataType {
	return v.typ
}

func (v *Values[T]) Len() int {
	return len(v.offsets) - 1
}

func (v *Values[T]) ValueCount(pos int) int {
	return int(v.offsets[pos+1] - v.offsets[pos])
}

func (v *Values[T]) FirstValueIndex(pos int) int {
	return int(v.offsets[pos])
}

func (v *Values[T]) IsNull(pos int) bool {
	return v.nulls != nil && v.nulls.Contains(uint32(pos))
}

func (v *Values[T]) Get(i int) T {
	return v.values[i]
}

func (v *Values[T]) Any(i int) any {
	return v.values[i]
}

// Slice returns the values at position pos.  The slice aliases the block
// and must not be modified.
func (v *Values[T]) Slice(pos int) []T {
	return v.values[v.offsets[pos]:v.offsets[pos+1]]
}

func (v *Values[T]) Pick(index []uint32) Block {
	b := NewBuilder[T](v.typ, len(index))
	for _, pos := range index {
		vals := v.Slice(int(pos))
		switch len(vals) {
		case 0:
			b.AppendNull()
		case 1:
			b.Append(vals[0])
		default:
			b.BeginPositionEntry()
			for _, val := range vals {
				b.Append(val)
			}
			b.EndPositionEntry()
		}
	}
	return b.Build()
}

// NewNull returns a block of n null positions.
func NewNull(n int) Block {
	nulls := roaring.New()
	nulls.AddRange(0, uint64(n))
	return NewValues[bool](esql.TypeNull, nil, make([]uint32, n+1), nulls)
}

// NewConst returns a block in which all n positions hold the value val.
func NewConst(val esql.Value, n int) Block {
	if val.IsNull() {
		return NewNull(n)
	}
	b := NewBuilderFor(val.Type, n)
	for range n {
		b.AppendAny(val.Any)
	}
	return b.Build()
}

// Get returns the content of position pos as nil, a single value, or a
// []any holding a multi-value.
func Get(b Block, pos int) any {
	n := b.ValueCount(pos)
	switch n {
	case 0:
		return nil
	case 1:
		return b.Any(b.FirstValueIndex(pos))
	}
	first := b.FirstValueIndex(pos)
	out := make([]any, 0, n)
	for i := first; i < first+n; i++ {
		out = append(out, b.Any(i))
	}
	return out
}

// Scalars returns the values at position pos as a slice.
func Scalars(b Block, pos int) []any {
	first, n := b.FirstValueIndex(pos), b.ValueCount(pos)
	out := make([]any, 0, n)
	for i := first; i < first+n; i++ {
		out = append(out, b.Any(i))
	}
	return out
}

// CopyPosition appends position pos of src to dst.
func CopyPosition(dst AnyBuilder, src Block, pos int) {
	first, n := src.FirstValueIndex(pos), src.ValueCount(pos)
	switch n {
	case 0:
		dst.AppendNull()
	case 1:
		dst.AppendAny(src.Any(first))
	default:
		dst.BeginPositionEntry()
		for i := first; i < first+n; i++ {
			dst.AppendAny(src.Any(i))
		}
		dst.EndPositionEntry()
	}
}
