package vector

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/brimdata/esql"
)

// Builder constructs a Values block position by position.  A call to
// Append outside of a BeginPositionEntry/EndPositionEntry pair produces a
// single-valued position.  A position closed with no values is null.
type Builder[T Scalar] struct {
	typ     esql.DataType
	values  []T
	offsets []uint32
	nulls   []uint32
	open    bool
}

func NewBuilder[T Scalar](typ esql.DataType, n int) *Builder[T] {
	offsets := make([]uint32, 1, n+1)
	return &Builder[T]{
		typ:     typ,
		values:  make([]T, 0, n),
		offsets: offsets,
	}
}

func (b *Builder[T]) Type() esql.DataType {
	return b.typ
}

// Len returns the number of positions completed so far.
func (b *Builder[T]) Len() int {
	return len(b.offsets) - 1
}

func (b *Builder[T]) BeginPositionEntry() {
	if b.open {
		panic("vector: position entry already open")
	}
	b.open = true
}

func (b *Builder[T]) Append(v T) {
	b.values = append(b.values, v)
	if !b.open {
		b.endPosition()
	}
}

func (b *Builder[T]) AppendAny(v any) {
	b.Append(v.(T))
}

func (b *Builder[T]) EndPositionEntry() {
	if !b.open {
		panic("vector: no open position entry")
	}
	b.open = false
	b.endPosition()
}

func (b *Builder[T]) AppendNull() {
	if b.open {
		panic("vector: null appended inside position entry")
	}
	b.endPosition()
}

func (b *Builder[T]) endPosition() {
	pos := len(b.offsets) - 1
	if uint32(len(b.values)) == b.offsets[pos] {
		b.nulls = append(b.nulls, uint32(pos))
	}
	b.offsets = append(b.offsets, uint32(len(b.values)))
}

// Build seals the builder into a block.  The builder must not be used
// afterward.
func (b *Builder[T]) Build() Block {
	if b.open {
		panic("vector: build with open position entry")
	}
	var nulls *roaring.Bitmap
	if len(b.nulls) > 0 {
		nulls = roaring.BitmapOf(b.nulls...)
	}
	return NewValues(b.typ, b.values, b.offsets, nulls)
}

// AnyBuilder is the type-erased view of a Builder used where the column
// type is only known at run time.
type AnyBuilder interface {
	Type() esql.DataType
	Len() int
	BeginPositionEntry()
	AppendAny(any)
	EndPositionEntry()
	AppendNull()
	Build() Block
}

// NewBuilderFor returns a builder for blocks of type typ.
func NewBuilderFor(typ esql.DataType, n int) AnyBuilder {
	switch typ {
	case esql.TypeBoolean, esql.TypeNull:
		return NewBuilder[bool](typ, n)
	case esql.TypeInteger:
		return NewBuilder[int32](typ, n)
	case esql.TypeLong, esql.TypeDatetime, esql.TypeTimeDuration, esql.TypeDatePeriod:
		return NewBuilder[int64](typ, n)
	case esql.TypeUnsignedLong:
		return NewBuilder[uint64](typ, n)
	case esql.TypeDouble:
		return NewBuilder[float64](typ, n)
	}
	return NewBuilder[string](typ, n)
}
