// Package function implements the scalar functions callable from ES|QL
// expressions.
package function

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

var (
	ErrNoSuchFunction = errors.New("no such function")
	ErrTooFewArgs     = errors.New("too few arguments")
	ErrTooManyArgs    = errors.New("too many arguments")
)

// Env is what a function instance may use from the running query.
type Env struct {
	Rctx   *runtime.Context
	Warner *runtime.Warner
}

type builder func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error)

// Def describes a function for META FUNCTIONS and builds its instances.
type Def struct {
	Name        string
	Synopsis    string
	Description string
	ArgMin      int
	// ArgMax is -1 for variadic functions.
	ArgMax int
	build  builder
}

var defs = map[string]*Def{}

func register(name, synopsis, description string, argmin, argmax int, build builder) {
	defs[name] = &Def{
		Name:        name,
		Synopsis:    synopsis,
		Description: description,
		ArgMin:      argmin,
		ArgMax:      argmax,
		build:       build,
	}
}

// New returns an instance of the named function applied to arguments of
// the given types along with its result type.
func New(env Env, name string, types []esql.DataType) (expr.Function, esql.DataType, error) {
	def, ok := defs[strings.ToLower(name)]
	if !ok {
		return nil, esql.TypeUnsupported, ErrNoSuchFunction
	}
	if err := CheckArgCount(len(types), def.ArgMin, def.ArgMax); err != nil {
		return nil, esql.TypeUnsupported, err
	}
	return def.build(env, types)
}

func CheckArgCount(narg int, argmin int, argmax int) error {
	if argmin != -1 && narg < argmin {
		return ErrTooFewArgs
	}
	if argmax != -1 && narg > argmax {
		return ErrTooManyArgs
	}
	return nil
}

// Lookup returns the definition of the named function.
func Lookup(name string) (*Def, bool) {
	def, ok := defs[strings.ToLower(name)]
	return def, ok
}

// Defs returns every function definition ordered by name.
func Defs() []*Def {
	out := make([]*Def, 0, len(defs))
	for _, def := range defs {
		out = append(out, def)
	}
	slices.SortFunc(out, func(a, b *Def) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

var ordinals = []string{"first", "second", "third", "fourth", "fifth"}

func ordinal(k int) string {
	if k < len(ordinals) {
		return ordinals[k]
	}
	return fmt.Sprintf("%dth", k+1)
}

func argError(name string, k int, want string, got esql.DataType) error {
	return fmt.Errorf("%s argument of [%s] must be [%s], found value type [%s]", ordinal(k), name, want, got)
}

func checkArgs(name string, types []esql.DataType, want string, ok func(esql.DataType) bool) error {
	for k, t := range types {
		if t != esql.TypeNull && !ok(t) {
			return argError(name, k, want, t)
		}
	}
	return nil
}

func isString(t esql.DataType) bool { return t.IsString() }

func isNumeric(t esql.DataType) bool { return t.IsNumeric() }

func isWholeNumber(t esql.DataType) bool { return t.IsWholeNumber() }

// scalar is a function of the single values at each position.  A null or
// multi-valued argument makes the result null.  fn may return nil for
// null or a []any for a multi-value.
type scalar struct {
	typ    esql.DataType
	warner *runtime.Warner
	fn     func(args []any) (any, error)
}

func newScalar(env Env, typ esql.DataType, fn func(args []any) (any, error)) *scalar {
	return &scalar{typ: typ, warner: env.Warner, fn: fn}
}

func (s *scalar) Call(n int, args []vector.Block) vector.Block {
	if s.typ == esql.TypeNull {
		return vector.NewNull(n)
	}
	out := vector.NewBuilderFor(s.typ, n)
	vals := make([]any, 0, len(args))
	for pos := range n {
		var ok bool
		vals, ok = expr.Singles(args, pos, s.warner, vals)
		if !ok {
			out.AppendNull()
			continue
		}
		v, err := s.fn(vals)
		if err != nil {
			s.warner.Warn(err)
			out.AppendNull()
			continue
		}
		appendResult(out, v)
	}
	return out.Build()
}

func appendResult(out vector.AnyBuilder, v any) {
	switch v := v.(type) {
	case nil:
		out.AppendNull()
	case []any:
		appendValues(out, v)
	default:
		out.AppendAny(v)
	}
}

func appendValues(out vector.AnyBuilder, vals []any) {
	switch len(vals) {
	case 0:
		out.AppendNull()
	case 1:
		out.AppendAny(vals[0])
	default:
		out.BeginPositionEntry()
		for _, v := range vals {
			out.AppendAny(v)
		}
		out.EndPositionEntry()
	}
}
