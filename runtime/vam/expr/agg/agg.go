// Package agg implements the aggregation functions of STATS.  Each group
// gets its own Func instance, created from a Pattern.
package agg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

type Func interface {
	// Consume adds every value at position pos of b.
	Consume(b vector.Block, pos int)
	// Result appends the aggregate value to out.
	Result(out vector.AnyBuilder)
}

type Pattern func() Func

var ErrNoSuchAggregate = errors.New("no such aggregate function")

var names = map[string]string{
	"avg":            "avg(number)",
	"count":          "count([field | *])",
	"count_distinct": "count_distinct(field)",
	"max":            "max(field)",
	"min":            "min(field)",
	"sum":            "sum(number)",
	"values":         "values(field)",
}

// IsAggregate reports whether name is an aggregate function.
func IsAggregate(name string) bool {
	_, ok := names[strings.ToLower(name)]
	return ok
}

// Synopses returns the call synopsis of each aggregate function keyed by
// name.
func Synopses() map[string]string {
	return names
}

// NewPattern returns a constructor for the named aggregate over a field of
// type typ, along with the type of its result.  star is set for the form
// count(*).
func NewPattern(name string, typ esql.DataType, star bool, w *runtime.Warner) (Pattern, esql.DataType, error) {
	name = strings.ToLower(name)
	if star && name != "count" {
		return nil, esql.TypeUnsupported, fmt.Errorf("[*] is only valid as the argument of [count], not [%s]", name)
	}
	switch name {
	case "count":
		return func() Func { return &count{star: star} }, esql.TypeLong, nil
	case "count_distinct":
		if typ == esql.TypeUnsupported {
			return nil, esql.TypeUnsupported, argError(name, typ)
		}
		return func() Func { return newCountDistinct() }, esql.TypeLong, nil
	case "sum":
		if !typ.IsNumeric() && typ != esql.TypeNull {
			return nil, esql.TypeUnsupported, argError(name, typ)
		}
		out := esql.TypeLong
		switch typ {
		case esql.TypeDouble, esql.TypeUnsignedLong:
			out = typ
		}
		return func() Func { return &sum{typ: out, warner: w} }, out, nil
	case "avg":
		if !typ.IsNumeric() && typ != esql.TypeNull {
			return nil, esql.TypeUnsupported, argError(name, typ)
		}
		return func() Func { return &avg{} }, esql.TypeDouble, nil
	case "min", "max":
		if typ.IsTemporalAmount() || typ == esql.TypeUnsupported {
			return nil, esql.TypeUnsupported, argError(name, typ)
		}
		sign := -1
		if name == "max" {
			sign = 1
		}
		return func() Func { return &extreme{typ: typ, sign: sign} }, typ, nil
	case "values":
		return func() Func { return newValues() }, typ, nil
	}
	return nil, esql.TypeUnsupported, ErrNoSuchAggregate
}

func argError(name string, typ esql.DataType) error {
	return fmt.Errorf("argument of [%s] must not be of type [%s]", name, typ)
}
