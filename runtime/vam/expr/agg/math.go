package agg

import (
	"errors"
	"math"
	"math/bits"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

type sum struct {
	typ      esql.DataType
	warner   *runtime.Warner
	hasval   bool
	overflow bool
	long     int64
	unsigned uint64
	double   float64
}

func (s *sum) Consume(b vector.Block, pos int) {
	first, n := b.FirstValueIndex(pos), b.ValueCount(pos)
	for i := first; i < first+n; i++ {
		s.hasval = true
		v := b.Any(i)
		switch s.typ {
		case esql.TypeDouble:
			s.double += esql.ToFloat64(v)
		case esql.TypeUnsignedLong:
			var carry uint64
			s.unsigned, carry = bits.Add64(s.unsigned, esql.ToUint64(v), 0)
			s.overflow = s.overflow || carry != 0
		default:
			x := esql.ToInt64(v)
			r := s.long + x
			if (x > 0 && r < s.long) || (x < 0 && r > s.long) {
				s.overflow = true
			}
			s.long = r
		}
	}
}

func (s *sum) Result(out vector.AnyBuilder) {
	switch {
	case !s.hasval:
		out.AppendNull()
	case s.overflow:
		s.warner.Warn(errors.New(s.typ.String() + " overflow"))
		out.AppendNull()
	case s.typ == esql.TypeDouble:
		out.AppendAny(s.double)
	case s.typ == esql.TypeUnsignedLong:
		out.AppendAny(s.unsigned)
	default:
		out.AppendAny(s.long)
	}
}

type avg struct {
	sum   float64
	count int64
}

func (a *avg) Consume(b vector.Block, pos int) {
	first, n := b.FirstValueIndex(pos), b.ValueCount(pos)
	for i := first; i < first+n; i++ {
		a.sum += esql.ToFloat64(b.Any(i))
		a.count++
	}
}

func (a *avg) Result(out vector.AnyBuilder) {
	if a.count == 0 || math.IsInf(a.sum, 0) {
		out.AppendNull()
		return
	}
	out.AppendAny(a.sum / float64(a.count))
}

// extreme computes min when sign is -1 and max when sign is 1.
type extreme struct {
	typ  esql.DataType
	sign int
	best any
}

func (e *extreme) Consume(b vector.Block, pos int) {
	first, n := b.FirstValueIndex(pos), b.ValueCount(pos)
	for i := first; i < first+n; i++ {
		v := b.Any(i)
		if e.best == nil || esql.Compare(e.typ, v, e.best)*e.sign > 0 {
			e.best = v
		}
	}
}

func (e *extreme) Result(out vector.AnyBuilder) {
	if e.best == nil {
		out.AppendNull()
		return
	}
	out.AppendAny(esql.Coerce(e.best, e.typ))
}

// values collects the distinct values of a group in the order they were
// first seen.
type values struct {
	seen map[any]struct{}
	vals []any
}

func newValues() *values {
	return &values{seen: make(map[any]struct{})}
}

func (v *values) Consume(b vector.Block, pos int) {
	first, n := b.FirstValueIndex(pos), b.ValueCount(pos)
	for i := first; i < first+n; i++ {
		val := b.Any(i)
		if _, ok := v.seen[val]; !ok {
			v.seen[val] = struct{}{}
			v.vals = append(v.vals, val)
		}
	}
}

func (v *values) Result(out vector.AnyBuilder) {
	switch len(v.vals) {
	case 0:
		out.AppendNull()
	case 1:
		out.AppendAny(v.vals[0])
	default:
		out.BeginPositionEntry()
		for _, val := range v.vals {
			out.AppendAny(val)
		}
		out.EndPositionEntry()
	}
}
