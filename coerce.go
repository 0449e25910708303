package esql

import (
	"cmp"
	"math"
)

// ToInt64 converts a numeric Go representation to int64, truncating
// fractions.
func ToInt64(v any) int64 {
	switch v := v.(type) {
	case int32:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func ToUint64(v any) uint64 {
	switch v := v.(type) {
	case int32:
		return uint64(v)
	case int64:
		return uint64(v)
	case uint64:
		return v
	case float64:
		return uint64(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

func ToFloat64(v any) float64 {
	switch v := v.(type) {
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
	}
	return math.NaN()
}

// Coerce converts the Go representation v to the representation of typ.
// Only numeric conversions are performed; other values pass through.
func Coerce(v any, typ DataType) any {
	if v == nil {
		return nil
	}
	switch typ {
	case TypeInteger:
		return int32(ToInt64(v))
	case TypeLong:
		return ToInt64(v)
	case TypeUnsignedLong:
		return ToUint64(v)
	case TypeDouble:
		return ToFloat64(v)
	}
	return v
}

// Compare orders a and b after converting both to typ, which is normally
// the result of Widen applied to their types.  Booleans order false before
// true.
func Compare(typ DataType, a, b any) int {
	switch typ {
	case TypeInteger, TypeLong, TypeDatetime, TypeTimeDuration, TypeDatePeriod:
		return cmp.Compare(ToInt64(a), ToInt64(b))
	case TypeUnsignedLong:
		return cmp.Compare(ToUint64(a), ToUint64(b))
	case TypeDouble:
		return cmp.Compare(ToFloat64(a), ToFloat64(b))
	case TypeBoolean:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	s, _ := a.(string)
	t, _ := b.(string)
	return cmp.Compare(s, t)
}
