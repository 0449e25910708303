package expr

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

var (
	errIntegerOverflow  = errors.New("integer overflow")
	errLongOverflow     = errors.New("long overflow")
	errUnsignedOverflow = errors.New("unsigned_long overflow")
)

type arithFunc func(a, b any) (any, error)

// Arith evaluates one of the binary operators + - * / % over numbers and
// temporal values.  An overflow or division by zero makes the result null
// and is reported as a warning.
type Arith struct {
	op     string
	lhs    Evaluator
	rhs    Evaluator
	typ    esql.DataType
	fn     arithFunc
	warner *runtime.Warner
}

var _ Evaluator = (*Arith)(nil)

func NewArith(op string, lhs, rhs Evaluator, w *runtime.Warner) (*Arith, error) {
	typ, fn, err := arithmetic(op, lhs.Type(), rhs.Type())
	if err != nil {
		return nil, err
	}
	return &Arith{op: op, lhs: lhs, rhs: rhs, typ: typ, fn: fn, warner: w}, nil
}

func (a *Arith) Type() esql.DataType {
	return a.typ
}

func (a *Arith) Eval(page *vector.Page) vector.Block {
	lhs, rhs := a.lhs.Eval(page), a.rhs.Eval(page)
	n := page.Len()
	if a.typ == esql.TypeNull {
		return vector.NewNull(n)
	}
	out := vector.NewBuilderFor(a.typ, n)
	for pos := range n {
		l, lok := Single(lhs, pos, a.warner)
		r, rok := Single(rhs, pos, a.warner)
		if !lok || !rok {
			out.AppendNull()
			continue
		}
		v, err := a.fn(l, r)
		if err != nil {
			a.warner.Warn(err)
			out.AppendNull()
			continue
		}
		out.AppendAny(v)
	}
	return out.Build()
}

func arithmetic(op string, lt, rt esql.DataType) (esql.DataType, arithFunc, error) {
	if lt == esql.TypeNull || rt == esql.TypeNull {
		if lt.IsNumeric() || rt.IsNumeric() || lt.IsTemporalAmount() || rt.IsTemporalAmount() || lt == rt || lt == esql.TypeDatetime || rt == esql.TypeDatetime {
			return esql.TypeNull, nil, nil
		}
	}
	if lt.IsNumeric() && rt.IsNumeric() {
		typ, _ := esql.Widen(lt, rt)
		return typ, numeric(op, typ), nil
	}
	if fn, typ, ok := temporal(op, lt, rt); ok {
		return typ, fn, nil
	}
	return esql.TypeUnsupported, nil, fmt.Errorf("arguments of [%s] have incompatible types [%s] and [%s]", op, lt, rt)
}

func numeric(op string, typ esql.DataType) arithFunc {
	switch typ {
	case esql.TypeInteger:
		return func(a, b any) (any, error) {
			v, err := longArith(op, esql.ToInt64(a), esql.ToInt64(b))
			if err == nil && (v < math.MinInt32 || v > math.MaxInt32) {
				err = errIntegerOverflow
			}
			if err != nil {
				return nil, err
			}
			return int32(v), nil
		}
	case esql.TypeLong:
		return func(a, b any) (any, error) {
			v, err := longArith(op, esql.ToInt64(a), esql.ToInt64(b))
			if err != nil {
				return nil, err
			}
			return v, nil
		}
	case esql.TypeUnsignedLong:
		return func(a, b any) (any, error) {
			v, err := unsignedArith(op, esql.ToUint64(a), esql.ToUint64(b))
			if err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return func(a, b any) (any, error) {
		v, err := doubleArith(op, esql.ToFloat64(a), esql.ToFloat64(b))
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func longArith(op string, x, y int64) (int64, error) {
	switch op {
	case "+":
		s := x + y
		if (x > 0 && y > 0 && s < 0) || (x < 0 && y < 0 && s >= 0) {
			return 0, errLongOverflow
		}
		return s, nil
	case "-":
		d := x - y
		if (x >= 0 && y < 0 && d < 0) || (x < 0 && y > 0 && d >= 0) {
			return 0, errLongOverflow
		}
		return d, nil
	case "*":
		if x == 0 || y == 0 {
			return 0, nil
		}
		p := x * y
		if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return 0, errLongOverflow
		}
		return p, nil
	case "/":
		if y == 0 {
			return 0, ErrDivideByZero
		}
		if x == math.MinInt64 && y == -1 {
			return 0, errLongOverflow
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return 0, ErrDivideByZero
		}
		if y == -1 {
			return 0, nil
		}
		return x % y, nil
	}
	panic(op)
}

func unsignedArith(op string, x, y uint64) (uint64, error) {
	switch op {
	case "+":
		s, carry := bits.Add64(x, y, 0)
		if carry != 0 {
			return 0, errUnsignedOverflow
		}
		return s, nil
	case "-":
		d, borrow := bits.Sub64(x, y, 0)
		if borrow != 0 {
			return 0, errUnsignedOverflow
		}
		return d, nil
	case "*":
		hi, lo := bits.Mul64(x, y)
		if hi != 0 {
			return 0, errUnsignedOverflow
		}
		return lo, nil
	case "/":
		if y == 0 {
			return 0, ErrDivideByZero
		}
		return x / y, nil
	case "%":
		if y == 0 {
			return 0, ErrDivideByZero
		}
		return x % y, nil
	}
	panic(op)
}

func doubleArith(op string, x, y float64) (float64, error) {
	var v float64
	switch op {
	case "+":
		v = x + y
	case "-":
		v = x - y
	case "*":
		v = x * y
	case "/":
		if y == 0 {
			return 0, ErrDivideByZero
		}
		v = x / y
	case "%":
		if y == 0 {
			return 0, ErrDivideByZero
		}
		v = math.Mod(x, y)
	default:
		panic(op)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("not a finite number: %s", esql.FormatDouble(v))
	}
	return v, nil
}

func temporal(op string, lt, rt esql.DataType) (arithFunc, esql.DataType, bool) {
	if op != "+" && op != "-" {
		return nil, esql.TypeUnsupported, false
	}
	sign := int64(1)
	if op == "-" {
		sign = -1
	}
	switch {
	case lt == esql.TypeDatetime && rt.IsTemporalAmount():
		return func(a, b any) (any, error) {
			return addTemporal(a.(int64), rt, b.(int64), sign)
		}, esql.TypeDatetime, true
	case lt.IsTemporalAmount() && rt == esql.TypeDatetime && op == "+":
		return func(a, b any) (any, error) {
			return addTemporal(b.(int64), lt, a.(int64), 1)
		}, esql.TypeDatetime, true
	case lt == esql.TypeTimeDuration && rt == esql.TypeTimeDuration:
		return func(a, b any) (any, error) {
			return longArith(op, a.(int64), b.(int64))
		}, esql.TypeTimeDuration, true
	case lt == esql.TypeDatePeriod && rt == esql.TypeDatePeriod:
		return func(a, b any) (any, error) {
			x, y := esql.UnpackPeriod(a.(int64)), esql.UnpackPeriod(b.(int64))
			months := int64(x.Months) + sign*int64(y.Months)
			days := int64(x.Days) + sign*int64(y.Days)
			if months != int64(int32(months)) || days != int64(int32(days)) {
				return nil, errIntegerOverflow
			}
			return esql.Period{Months: int32(months), Days: int32(days)}.Pack(), nil
		}, esql.TypeDatePeriod, true
	}
	return nil, esql.TypeUnsupported, false
}

func addTemporal(ms int64, typ esql.DataType, amount, sign int64) (any, error) {
	if typ == esql.TypeTimeDuration {
		return longArith("+", ms, sign*(amount/int64(time.Millisecond)))
	}
	p := esql.UnpackPeriod(amount)
	t := time.UnixMilli(ms).UTC().AddDate(0, int(sign)*int(p.Months), int(sign)*int(p.Days))
	return t.UnixMilli(), nil
}

// Negate evaluates unary minus.
type Negate struct {
	expr   Evaluator
	warner *runtime.Warner
}

var _ Evaluator = (*Negate)(nil)

func NewNegate(e Evaluator, w *runtime.Warner) (*Negate, error) {
	switch typ := e.Type(); {
	case typ == esql.TypeUnsignedLong:
		return nil, errors.New("cannot negate an [unsigned_long]")
	case typ.IsNumeric(), typ.IsTemporalAmount(), typ == esql.TypeNull:
	default:
		return nil, fmt.Errorf("argument of [-] must be numeric or a temporal amount, found [%s]", typ)
	}
	return &Negate{expr: e, warner: w}, nil
}

func (n *Negate) Type() esql.DataType {
	return n.expr.Type()
}

func (n *Negate) Eval(page *vector.Page) vector.Block {
	in := n.expr.Eval(page)
	if n.Type() == esql.TypeNull {
		return in
	}
	out := vector.NewBuilderFor(n.Type(), page.Len())
	for pos := range page.Len() {
		v, ok := Single(in, pos, n.warner)
		if !ok {
			out.AppendNull()
			continue
		}
		v, err := negate(n.Type(), v)
		if err != nil {
			n.warner.Warn(err)
			out.AppendNull()
			continue
		}
		out.AppendAny(v)
	}
	return out.Build()
}

func negate(typ esql.DataType, v any) (any, error) {
	switch typ {
	case esql.TypeInteger:
		if v.(int32) == math.MinInt32 {
			return nil, errIntegerOverflow
		}
		return -v.(int32), nil
	case esql.TypeDouble:
		return -v.(float64), nil
	case esql.TypeDatePeriod:
		p := esql.UnpackPeriod(v.(int64))
		if p.Months == math.MinInt32 || p.Days == math.MinInt32 {
			return nil, errIntegerOverflow
		}
		return esql.Period{Months: -p.Months, Days: -p.Days}.Pack(), nil
	}
	if v.(int64) == math.MinInt64 {
		return nil, errLongOverflow
	}
	return -v.(int64), nil
}
