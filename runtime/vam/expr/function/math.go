package function

import (
	"errors"
	"fmt"
	"math"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime/vam/expr"
)

func init() {
	register("abs", "abs(number)",
		"Returns the absolute value of a number.",
		1, 1, numericFunc("abs", abs))
	register("floor", "floor(number)",
		"Rounds a number down to the nearest whole number.",
		1, 1, numericFunc("floor", func(typ esql.DataType, v any) (any, error) {
			if typ == esql.TypeDouble {
				return math.Floor(v.(float64)), nil
			}
			return v, nil
		}))
	register("ceil", "ceil(number)",
		"Rounds a number up to the nearest whole number.",
		1, 1, numericFunc("ceil", func(typ esql.DataType, v any) (any, error) {
			if typ == esql.TypeDouble {
				return math.Ceil(v.(float64)), nil
			}
			return v, nil
		}))
	register("round", "round(number[, decimals])",
		"Rounds a number to the given number of decimal places, half away from zero.",
		1, 2, newRound)
	register("pow", "pow(base, exponent)",
		"Returns base raised to the power of exponent.",
		2, 2, newDoubleFunc("pow", func(args []float64) float64 {
			return math.Pow(args[0], args[1])
		}))
	register("sqrt", "sqrt(number)",
		"Returns the square root of a number.",
		1, 1, newDoubleFunc("sqrt", func(args []float64) float64 {
			return math.Sqrt(args[0])
		}))
}

func numericFunc(name string, fn func(esql.DataType, any) (any, error)) builder {
	return func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
		if err := checkArgs(name, types, "numeric", isNumeric); err != nil {
			return nil, esql.TypeUnsupported, err
		}
		typ := types[0]
		return newScalar(env, typ, func(args []any) (any, error) {
			return fn(typ, args[0])
		}), typ, nil
	}
}

func abs(typ esql.DataType, v any) (any, error) {
	switch v := v.(type) {
	case int32:
		if v == math.MinInt32 {
			return nil, errors.New("integer overflow")
		}
		return max(v, -v), nil
	case int64:
		if v == math.MinInt64 {
			return nil, errors.New("long overflow")
		}
		return max(v, -v), nil
	case float64:
		return math.Abs(v), nil
	}
	return v, nil
}

func newRound(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	if err := checkArgs("round", types[:1], "numeric", isNumeric); err != nil {
		return nil, esql.TypeUnsupported, err
	}
	if len(types) == 2 {
		if err := checkArgs("round", types[1:], "integer", isWholeNumber); err != nil {
			return nil, esql.TypeUnsupported, err
		}
	}
	typ := types[0]
	return newScalar(env, typ, func(args []any) (any, error) {
		var decimals int64
		if len(args) == 2 {
			decimals = esql.ToInt64(args[1])
		}
		return Round(args[0], decimals)
	}), typ, nil
}

// Round rounds v to decimals places.  Whole numbers change only when
// decimals is negative.
func Round(v any, decimals int64) (any, error) {
	switch v := v.(type) {
	case float64:
		if decimals > 308 {
			return v, nil
		}
		if decimals < -308 {
			return 0.0, nil
		}
		p := math.Pow10(int(decimals))
		r := math.Round(v*p) / p
		if math.IsInf(r, 0) || math.IsNaN(r) {
			return v, nil
		}
		return r, nil
	case int32:
		r, err := roundWhole(int64(v), decimals)
		if err != nil || r != int64(int32(r)) {
			return nil, errors.New("integer overflow")
		}
		return int32(r), nil
	case int64:
		return roundWhole(v, decimals)
	case uint64:
		if decimals >= 0 {
			return v, nil
		}
		if decimals < -19 {
			return uint64(0), nil
		}
		p := uint64(math.Pow10(int(-decimals)))
		if v > math.MaxUint64-p/2 {
			return nil, errors.New("unsigned_long overflow")
		}
		return (v + p/2) / p * p, nil
	}
	return v, nil
}

func roundWhole(v, decimals int64) (int64, error) {
	if decimals >= 0 {
		return v, nil
	}
	if decimals < -18 {
		return 0, nil
	}
	p := int64(math.Pow10(int(-decimals)))
	half := p / 2
	switch {
	case v >= 0 && v > math.MaxInt64-half:
		return 0, errors.New("long overflow")
	case v < 0 && v < math.MinInt64+half:
		return 0, errors.New("long overflow")
	case v < 0:
		half = -half
	}
	return (v + half) / p * p, nil
}

func newDoubleFunc(name string, fn func([]float64) float64) builder {
	return func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
		if err := checkArgs(name, types, "numeric", isNumeric); err != nil {
			return nil, esql.TypeUnsupported, err
		}
		return newScalar(env, esql.TypeDouble, func(args []any) (any, error) {
			vals := make([]float64, 0, len(args))
			for _, a := range args {
				vals = append(vals, esql.ToFloat64(a))
			}
			r := fn(vals)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return nil, fmt.Errorf("%s produced a non-finite number", name)
			}
			return r, nil
		}), esql.TypeDouble, nil
	}
}
