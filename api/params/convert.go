package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/brimdata/esql"
)

// inferNumber types a JSON number by the smallest type that holds it:
// integer, then long, then unsigned_long, and otherwise double.
func inferNumber(n json.Number) esql.Value {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			if v >= math.MinInt32 && v <= math.MaxInt32 {
				return esql.NewInteger(int32(v))
			}
			return esql.NewLong(v)
		}
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return esql.NewUnsigned(v)
		}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return esql.NewDouble(f)
}

// ConvertJSON converts a JSON scalar to a value of type typ.
func ConvertJSON(raw json.RawMessage, typ esql.DataType) (esql.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return esql.Value{}, err
	}
	if _, ok := tok.(json.Delim); ok {
		return esql.Value{}, fmt.Errorf("cannot convert %s", raw)
	}
	if n, ok := tok.(json.Number); ok {
		tok = inferNumber(n).Any
	}
	return Convert(tok, typ)
}

// Convert converts a Go scalar (string, bool, or any of the numeric
// representations) to a value of type typ.
func Convert(v any, typ esql.DataType) (esql.Value, error) {
	out := esql.Value{Type: typ}
	fail := fmt.Errorf("cannot convert [%v] to [%s]", v, typ)
	switch typ {
	case esql.TypeKeyword, esql.TypeText:
		switch v := v.(type) {
		case string:
			out.Any = v
		default:
			out.Any = esql.FormatScalar(typeOf(v), v)
		}
	case esql.TypeBoolean:
		switch v := v.(type) {
		case bool:
			out.Any = v
		case string:
			b, err := strconv.ParseBool(strings.ToLower(v))
			if err != nil {
				return out, fail
			}
			out.Any = b
		default:
			return out, fail
		}
	case esql.TypeInteger, esql.TypeLong, esql.TypeDatetime:
		i, ok := toInt64(v)
		if !ok && typ == esql.TypeDatetime {
			if s, isString := v.(string); isString {
				t, err := dateparse.ParseIn(s, time.UTC)
				if err != nil {
					return out, fail
				}
				i, ok = t.UnixMilli(), true
			}
		}
		if !ok {
			return out, fail
		}
		if typ == esql.TypeInteger {
			if i < math.MinInt32 || i > math.MaxInt32 {
				return out, fail
			}
			out.Any = int32(i)
		} else {
			out.Any = i
		}
	case esql.TypeUnsignedLong:
		switch v := v.(type) {
		case uint64:
			out.Any = v
		default:
			i, ok := toInt64(v)
			if !ok || i < 0 {
				return out, fail
			}
			out.Any = uint64(i)
		}
	case esql.TypeDouble:
		switch v := v.(type) {
		case float64:
			out.Any = v
		case int32:
			out.Any = float64(v)
		case int64:
			out.Any = float64(v)
		case uint64:
			out.Any = float64(v)
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return out, fail
			}
			out.Any = f
		default:
			return out, fail
		}
	default:
		return out, fail
	}
	return out, nil
}

func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func typeOf(v any) esql.DataType {
	switch v.(type) {
	case bool:
		return esql.TypeBoolean
	case int32:
		return esql.TypeInteger
	case int64:
		return esql.TypeLong
	case uint64:
		return esql.TypeUnsignedLong
	case float64:
		return esql.TypeDouble
	}
	return esql.TypeKeyword
}
