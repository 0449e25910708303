// Package cast converts values between data types for the inline cast
// operator and the to_* conversion functions.
package cast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
	"golang.org/x/exp/constraints"
)

// Func converts a single value.
type Func func(v any) (any, error)

func identity(v any) (any, error) { return v, nil }

// To returns the conversion from type from to type to or false if the
// conversion is not supported.
func To(from, to esql.DataType) (Func, bool) {
	if from == to || from == esql.TypeNull || from.IsString() && to.IsString() {
		return identity, true
	}
	switch to {
	case esql.TypeKeyword, esql.TypeText:
		if from == esql.TypeUnsupported {
			return nil, false
		}
		return func(v any) (any, error) {
			return esql.FormatScalar(from, v), nil
		}, true
	case esql.TypeBoolean:
		return toBoolean(from)
	case esql.TypeInteger:
		return toWhole(from, to, math.MinInt32, math.MaxInt32, func(v int64) any { return int32(v) })
	case esql.TypeLong:
		return toWhole(from, to, math.MinInt64, math.MaxInt64, func(v int64) any { return v })
	case esql.TypeUnsignedLong:
		return toUnsigned(from)
	case esql.TypeDouble:
		return toDouble(from)
	case esql.TypeDatetime:
		return toDatetime(from)
	case esql.TypeTimeDuration, esql.TypeDatePeriod:
		if !from.IsString() {
			return nil, false
		}
		return func(v any) (any, error) {
			val, err := ParseTemporal(v.(string), to)
			if err != nil {
				return nil, err
			}
			return val.Any, nil
		}, true
	}
	return nil, false
}

func convertError(v any, to esql.DataType) error {
	return fmt.Errorf("Cannot convert [%v] to [%s]", v, to)
}

func rangeError(v any, to esql.DataType) error {
	return fmt.Errorf("[%v] out of [%s] range", v, to)
}

func toBoolean(from esql.DataType) (Func, bool) {
	switch {
	case from.IsString():
		return func(v any) (any, error) {
			return strings.EqualFold(v.(string), "true"), nil
		}, true
	case from.IsNumeric():
		return func(v any) (any, error) {
			return esql.ToFloat64(v) != 0, nil
		}, true
	}
	return nil, false
}

func inRange[T constraints.Integer | constraints.Float](v T, lo, hi float64) bool {
	f := float64(v)
	return f >= lo && f <= hi
}

func toWhole(from, to esql.DataType, lo, hi float64, wrap func(int64) any) (Func, bool) {
	switch {
	case from.IsString():
		return func(v any) (any, error) {
			s := strings.TrimSpace(v.(string))
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				if !inRange(n, lo, hi) {
					return nil, rangeError(s, to)
				}
				return wrap(n), nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, convertError(s, to)
			}
			if !inRange(f, lo, hi) {
				return nil, rangeError(s, to)
			}
			return wrap(int64(f)), nil
		}, true
	case from == esql.TypeBoolean:
		return func(v any) (any, error) {
			return wrap(esql.ToInt64(v)), nil
		}, true
	case from == esql.TypeUnsignedLong:
		return func(v any) (any, error) {
			if u := v.(uint64); u > uint64(hi) {
				return nil, rangeError(u, to)
			}
			return wrap(esql.ToInt64(v)), nil
		}, true
	case from == esql.TypeDouble:
		return func(v any) (any, error) {
			f := v.(float64)
			if math.IsNaN(f) || !inRange(f, lo, hi) {
				return nil, rangeError(esql.FormatDouble(f), to)
			}
			return wrap(int64(f)), nil
		}, true
	case from == esql.TypeInteger, from == esql.TypeLong, from == esql.TypeDatetime:
		return func(v any) (any, error) {
			n := esql.ToInt64(v)
			if !inRange(n, lo, hi) {
				return nil, rangeError(n, to)
			}
			return wrap(n), nil
		}, true
	}
	return nil, false
}

func toUnsigned(from esql.DataType) (Func, bool) {
	switch {
	case from.IsString():
		return func(v any) (any, error) {
			s := strings.TrimSpace(v.(string))
			if n, err := strconv.ParseUint(s, 10, 64); err == nil {
				return n, nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, convertError(s, esql.TypeUnsignedLong)
			}
			if !inRange(f, 0, math.MaxUint64) {
				return nil, rangeError(s, esql.TypeUnsignedLong)
			}
			return uint64(f), nil
		}, true
	case from == esql.TypeBoolean:
		return func(v any) (any, error) {
			return esql.ToUint64(v), nil
		}, true
	case from == esql.TypeDouble:
		return func(v any) (any, error) {
			f := v.(float64)
			if math.IsNaN(f) || !inRange(f, 0, math.MaxUint64) {
				return nil, rangeError(esql.FormatDouble(f), esql.TypeUnsignedLong)
			}
			return uint64(f), nil
		}, true
	case from == esql.TypeInteger, from == esql.TypeLong, from == esql.TypeDatetime:
		return func(v any) (any, error) {
			n := esql.ToInt64(v)
			if n < 0 {
				return nil, rangeError(n, esql.TypeUnsignedLong)
			}
			return uint64(n), nil
		}, true
	}
	return nil, false
}

func toDouble(from esql.DataType) (Func, bool) {
	switch {
	case from.IsString():
		return func(v any) (any, error) {
			s := strings.TrimSpace(v.(string))
			f, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsInf(f, 0) {
				return nil, convertError(s, esql.TypeDouble)
			}
			return f, nil
		}, true
	case from.IsNumeric(), from == esql.TypeBoolean, from == esql.TypeDatetime:
		return func(v any) (any, error) {
			return esql.ToFloat64(v), nil
		}, true
	}
	return nil, false
}

func toDatetime(from esql.DataType) (Func, bool) {
	switch {
	case from.IsString():
		return func(v any) (any, error) {
			t, err := ParseDatetime(v.(string))
			if err != nil {
				return nil, err
			}
			return t.UnixMilli(), nil
		}, true
	case from == esql.TypeDouble:
		return func(v any) (any, error) {
			f := v.(float64)
			if math.IsNaN(f) || !inRange(f, math.MinInt64, math.MaxInt64) {
				return nil, rangeError(esql.FormatDouble(f), esql.TypeDatetime)
			}
			return int64(f), nil
		}, true
	case from == esql.TypeUnsignedLong:
		return func(v any) (any, error) {
			if u := v.(uint64); u > math.MaxInt64 {
				return nil, rangeError(u, esql.TypeDatetime)
			}
			return esql.ToInt64(v), nil
		}, true
	case from == esql.TypeInteger, from == esql.TypeLong:
		return func(v any) (any, error) {
			return esql.ToInt64(v), nil
		}, true
	}
	return nil, false
}

// ParseDatetime parses s in any of the layouts understood by dateparse.
// Times without a zone are taken to be UTC.
func ParseDatetime(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date field [%s]", s)
	}
	return t.UTC(), nil
}

// Block applies fn to every value of b.  A value that fails to convert is
// dropped and reported to w.  A position left with no values is null.
func Block(b vector.Block, to esql.DataType, fn Func, w *runtime.Warner) vector.Block {
	n := b.Len()
	out := vector.NewBuilderFor(to, n)
	vals := make([]any, 0, 1)
	for pos := range n {
		vals = vals[:0]
		first, count := b.FirstValueIndex(pos), b.ValueCount(pos)
		for i := first; i < first+count; i++ {
			v, err := fn(b.Any(i))
			if err != nil {
				w.Warn(err)
				continue
			}
			vals = append(vals, v)
		}
		appendValues(out, vals)
	}
	return out.Build()
}

func appendValues(b vector.AnyBuilder, vals []any) {
	switch len(vals) {
	case 0:
		b.AppendNull()
	case 1:
		b.AppendAny(vals[0])
	default:
		b.BeginPositionEntry()
		for _, v := range vals {
			b.AppendAny(v)
		}
		b.EndPositionEntry()
	}
}
