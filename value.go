package esql

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DatetimeFormat is the layout used to render datetime values.
const DatetimeFormat = "2006-01-02T15:04:05.000Z"

// Period is a calendar amount such as "2 months" or "3 days".  It is
// packed into an int64 when stored in a block.
type Period struct {
	Months int32
	Days   int32
}

func (p Period) Pack() int64 {
	return int64(p.Months)<<32 | int64(uint32(p.Days))
}

func UnpackPeriod(v int64) Period {
	return Period{Months: int32(v >> 32), Days: int32(uint32(v))}
}

func (p Period) String() string {
	switch {
	case p.Months == 0:
		return fmt.Sprintf("P%dD", p.Days)
	case p.Days == 0:
		return fmt.Sprintf("P%dM", p.Months)
	}
	return fmt.Sprintf("P%dM%dD", p.Months, p.Days)
}

// Value is a typed scalar.  Any holds the Go representation of the value:
// bool for boolean, int32 for integer, int64 for long, datetime (epoch
// milliseconds), time_duration (nanoseconds) and date_period (packed),
// uint64 for unsigned_long, float64 for double, and string for keyword
// and text.  A null value has a nil Any.
type Value struct {
	Type DataType
	Any  any
}

var Null = Value{Type: TypeNull}

func NewKeyword(s string) Value  { return Value{TypeKeyword, s} }
func NewInteger(v int32) Value   { return Value{TypeInteger, v} }
func NewLong(v int64) Value      { return Value{TypeLong, v} }
func NewDouble(v float64) Value  { return Value{TypeDouble, v} }
func NewBoolean(v bool) Value    { return Value{TypeBoolean, v} }
func NewUnsigned(v uint64) Value { return Value{TypeUnsignedLong, v} }

func NewDatetime(t time.Time) Value {
	return Value{TypeDatetime, t.UnixMilli()}
}

func (v Value) IsNull() bool {
	return v.Any == nil
}

func (v Value) String() string {
	return FormatScalar(v.Type, v.Any)
}

// FormatScalar renders a single non-array value of type typ as text.
// Null renders as "null".
func FormatScalar(typ DataType, v any) string {
	if v == nil {
		return "null"
	}
	switch typ {
	case TypeDatetime:
		return time.UnixMilli(v.(int64)).UTC().Format(DatetimeFormat)
	case TypeTimeDuration:
		return time.Duration(v.(int64)).String()
	case TypeDatePeriod:
		return UnpackPeriod(v.(int64)).String()
	}
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return FormatDouble(v)
	}
	return fmt.Sprint(v)
}

// FormatDouble renders f with at least one fractional digit, switching to
// E notation outside of [1e-3, 1e7).
func FormatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); f == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'E', -1, 64), "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(strings.TrimLeft(exp, "+-"), "0")
	if neg {
		exp = "-" + exp
	}
	return mant + "E" + exp
}

// JSONScalar returns the value to place in a JSON document for a single
// non-array value of type typ.
func JSONScalar(typ DataType, v any) any {
	switch typ {
	case TypeDatetime, TypeTimeDuration, TypeDatePeriod:
		if v == nil {
			return nil
		}
		return FormatScalar(typ, v)
	case TypeDouble:
		if f, ok := v.(float64); ok && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return json.Number(FormatDouble(f))
		}
	}
	return v
}
