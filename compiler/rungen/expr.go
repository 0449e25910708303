package rungen

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/runtime/vam/expr/agg"
	"github.com/brimdata/esql/runtime/vam/expr/cast"
	"github.com/brimdata/esql/runtime/vam/expr/function"
	"github.com/brimdata/esql/vector"
)

func (b *Builder) compileExpr(e ast.Expr, schema vector.Schema) (expr.Evaluator, error) {
	switch e := e.(type) {
	case *ast.Literal:
		val, err := b.literal(e)
		if err != nil {
			return nil, err
		}
		return expr.NewLiteral(val), nil
	case *ast.QualifiedInteger:
		return b.qualifiedInteger(e)
	case *ast.ArrayLiteral:
		return b.arrayLiteral(e)
	case *ast.Param:
		return b.paramExpr(e, schema)
	case *ast.QualifiedName:
		name, err := b.name(e)
		if err != nil {
			return nil, err
		}
		return b.field(e, name, schema)
	case *ast.LogicalBinary:
		lhs, err := b.compileBoolean(e, e.LHS, schema)
		if err != nil {
			return nil, err
		}
		rhs, err := b.compileBoolean(e, e.RHS, schema)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(e.Op, "and") {
			return expr.NewLogicalAnd(lhs, rhs, b.warner(e)), nil
		}
		return expr.NewLogicalOr(lhs, rhs, b.warner(e)), nil
	case *ast.LogicalNot:
		operand, err := b.compileBoolean(e, e.Expr, schema)
		if err != nil {
			return nil, err
		}
		return expr.NewLogicalNot(operand, b.warner(e)), nil
	case *ast.Comparison:
		return b.compileComparison(e, schema)
	case *ast.ArithmeticBinary:
		lhs, rhs, err := b.compileOperands(e.LHS, e.RHS, schema)
		if err != nil {
			return nil, err
		}
		out, err := expr.NewArith(e.Op, lhs, rhs, b.warner(e))
		if err != nil {
			return nil, b.errorf(e, "%s", err)
		}
		return out, nil
	case *ast.ArithmeticUnary:
		operand, err := b.compileExpr(e.Operand, schema)
		if err != nil {
			return nil, err
		}
		if e.Op == "+" {
			if typ := operand.Type(); !typ.IsNumeric() && typ != esql.TypeNull && !typ.IsTemporalAmount() {
				return nil, b.errorf(e, "argument of [%s] must be [numeric], found value [%s] type [%s]", b.text(e), b.text(e.Operand), typ)
			}
			return operand, nil
		}
		out, err := expr.NewNegate(operand, b.warner(e))
		if err != nil {
			return nil, b.errorf(e, "%s", err)
		}
		return out, nil
	case *ast.InlineCast:
		typ, ok := esql.ParseDataType(e.Type)
		if !ok {
			return nil, b.errorf(e, "Unsupported conversion to type [%s]", e.Type)
		}
		operand, err := b.compileExpr(e.Expr, schema)
		if err != nil {
			return nil, err
		}
		out, err := expr.NewCast(operand, typ, b.warner(e))
		if err != nil {
			return nil, b.errorf(e, "%s", err)
		}
		return out, nil
	case *ast.FunctionCall:
		return b.compileCall(e, schema)
	case *ast.InList:
		return b.compileIn(e, schema)
	case *ast.IsNull:
		operand, err := b.compileExpr(e.Expr, schema)
		if err != nil {
			return nil, err
		}
		return expr.NewIsNull(operand, e.Not), nil
	case *ast.RegexMatch:
		return b.compileRegexp(e, schema)
	}
	return nil, b.errorf(e, "unsupported expression [%s]", b.text(e))
}

// compileBoolean compiles an operand of a logical operator.
func (b *Builder) compileBoolean(parent, e ast.Expr, schema vector.Schema) (expr.Evaluator, error) {
	out, err := b.compileExpr(e, schema)
	if err != nil {
		return nil, err
	}
	if typ := out.Type(); typ != esql.TypeBoolean && typ != esql.TypeNull {
		return nil, b.errorf(e, "argument of [%s] must be [boolean], found value [%s] type [%s]", b.text(parent), b.text(e), typ)
	}
	return out, nil
}

func (b *Builder) compileOperands(l, r ast.Expr, schema vector.Schema) (expr.Evaluator, expr.Evaluator, error) {
	lhs, err := b.compileExpr(l, schema)
	if err != nil {
		return nil, nil, err
	}
	rhs, err := b.compileExpr(r, schema)
	if err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}

func (b *Builder) compileComparison(e *ast.Comparison, schema vector.Schema) (expr.Evaluator, error) {
	lhs, rhs, err := b.compileOperands(e.LHS, e.RHS, schema)
	if err != nil {
		return nil, err
	}
	if lhs, err = b.foldDatetime(e.LHS, lhs, rhs.Type()); err != nil {
		return nil, err
	}
	if rhs, err = b.foldDatetime(e.RHS, rhs, lhs.Type()); err != nil {
		return nil, err
	}
	op := e.Op
	if op == "=" {
		op = "=="
	}
	out, err := expr.NewCompare(op, lhs, rhs, b.warner(e))
	if err != nil {
		return nil, b.errorf(e, "%s", err)
	}
	return out, nil
}

// foldDatetime converts a string constant compared with a datetime into a
// datetime constant.
func (b *Builder) foldDatetime(n ast.Node, e expr.Evaluator, other esql.DataType) (expr.Evaluator, error) {
	lit, ok := e.(*expr.Literal)
	if !ok || other != esql.TypeDatetime || !lit.Type().IsString() {
		return e, nil
	}
	val, ok := lit.Value()
	if !ok || val.IsNull() {
		return e, nil
	}
	t, err := cast.ParseDatetime(val.Any.(string))
	if err != nil {
		return nil, b.errorf(n, "%s", err)
	}
	return expr.NewLiteral(esql.NewDatetime(t)), nil
}

func (b *Builder) compileIn(e *ast.InList, schema vector.Schema) (expr.Evaluator, error) {
	operand, err := b.compileExpr(e.Expr, schema)
	if err != nil {
		return nil, err
	}
	list := make([]expr.Evaluator, 0, len(e.List))
	for _, elem := range e.List {
		v, err := b.compileExpr(elem, schema)
		if err != nil {
			return nil, err
		}
		if v, err = b.foldDatetime(elem, v, operand.Type()); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	out, err := expr.NewIn(operand, list, e.Not, b.warner(e))
	if err != nil {
		return nil, b.errorf(e, "%s", err)
	}
	return out, nil
}

func (b *Builder) compileRegexp(e *ast.RegexMatch, schema vector.Schema) (expr.Evaluator, error) {
	operand, err := b.compileExpr(e.Expr, schema)
	if err != nil {
		return nil, err
	}
	var pattern string
	switch p := e.Pattern.(type) {
	case *ast.Literal:
		pattern = p.Text
	case *ast.Param:
		prm, err := b.param(p)
		if err != nil {
			return nil, err
		}
		s, ok := prm.Value.Any.(string)
		if !ok || prm.IsField || prm.IsPattern {
			return nil, b.errorf(p, "Invalid pattern parameter type for %s [%s]: expected string, found [%s]", strings.ToUpper(e.Op), p.Marker(), prm.Value.Type)
		}
		pattern = s
	default:
		return nil, b.errorf(e.Pattern, "pattern of %s must be a string", strings.ToUpper(e.Op))
	}
	compile := expr.CompileLike
	if strings.EqualFold(e.Op, "rlike") {
		compile = expr.CompileRlike
	}
	re, err := compile(pattern)
	if err != nil {
		return nil, b.errorf(e.Pattern, "Invalid regex pattern for %s [%s]: [%s]", strings.ToUpper(e.Op), pattern, err)
	}
	out, err := expr.NewRegexp(operand, re, e.Not, b.warner(e))
	if err != nil {
		return nil, b.errorf(e, "%s", err)
	}
	return out, nil
}

func (b *Builder) compileCall(e *ast.FunctionCall, schema vector.Schema) (expr.Evaluator, error) {
	if agg.IsAggregate(e.Name) {
		return nil, b.errorf(e, "aggregate function [%s] not allowed outside STATS command", b.text(e))
	}
	if e.Star {
		return nil, b.errorf(e, "[*] is not a valid argument of [%s]", e.Name)
	}
	args := make([]expr.Evaluator, 0, len(e.Args))
	types := make([]esql.DataType, 0, len(e.Args))
	for _, arg := range e.Args {
		a, err := b.compileExpr(arg, schema)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		types = append(types, a.Type())
	}
	fn, typ, err := function.New(function.Env{Rctx: b.rctx, Warner: b.warner(e)}, e.Name, types)
	switch {
	case errors.Is(err, function.ErrNoSuchFunction):
		var names []string
		for _, def := range function.Defs() {
			names = append(names, def.Name)
		}
		return nil, b.errorf(e, "%s", didYouMean("Unknown function ["+e.Name+"]", suggest(e.Name, names)))
	case errors.Is(err, function.ErrTooFewArgs), errors.Is(err, function.ErrTooManyArgs):
		return nil, b.errorf(e, "error building [%s]: %s", strings.ToLower(e.Name), err)
	case err != nil:
		return nil, b.errorf(e, "%s", err)
	}
	return expr.NewCall(fn, args, typ), nil
}

// field resolves a column reference.
func (b *Builder) field(n ast.Node, name string, schema vector.Schema) (expr.Evaluator, error) {
	k := schema.Index(name)
	if k < 0 {
		return nil, b.errorf(n, "%s", didYouMean("Unknown column ["+name+"]", suggest(name, schema.Names())))
	}
	if typ := schema[k].Type; typ == esql.TypeUnsupported {
		return nil, b.errorf(n, "Cannot use field [%s] with unsupported type", name)
	}
	return expr.NewField(name, schema[k].Type), nil
}

// name returns the dotted name of q with parameter parts substituted.
func (b *Builder) name(q *ast.QualifiedName) (string, error) {
	parts := make([]string, 0, len(q.Parts))
	for _, part := range q.Parts {
		if part.Param == nil {
			parts = append(parts, part.Name)
			continue
		}
		s, err := b.identParam(part.Param, false)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "."), nil
}

func (b *Builder) literal(l *ast.Literal) (esql.Value, error) {
	switch l.Type {
	case "null":
		return esql.Null, nil
	case "boolean":
		return esql.NewBoolean(strings.EqualFold(l.Text, "true")), nil
	case "integer":
		return parseInteger(l.Text), nil
	case "decimal":
		f, err := strconv.ParseFloat(l.Text, 64)
		if err != nil || math.IsInf(f, 0) {
			return esql.Null, b.errorf(l, "Number [%s] is too large", l.Text)
		}
		return esql.NewDouble(f), nil
	case "string":
		return esql.NewKeyword(l.Text), nil
	}
	return esql.Null, b.errorf(l, "unknown literal type %q", l.Type)
}

// parseInteger types an integer literal as the narrowest of integer,
// long, unsigned_long, and double that holds it.
func parseInteger(s string) esql.Value {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return esql.NewInteger(int32(v))
		}
		return esql.NewLong(v)
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return esql.NewUnsigned(v)
	}
	f, _ := strconv.ParseFloat(s, 64)
	return esql.NewDouble(f)
}

func (b *Builder) qualifiedInteger(q *ast.QualifiedInteger) (expr.Evaluator, error) {
	n, err := strconv.ParseInt(q.Value.Text, 10, 64)
	if err != nil {
		return nil, b.errorf(q, "Number [%s] is too large", q.Value.Text)
	}
	val, err := cast.Temporal(n, q.Unit)
	if err != nil {
		return nil, b.errorf(q, "%s", err)
	}
	return expr.NewLiteral(val), nil
}

func (b *Builder) arrayLiteral(a *ast.ArrayLiteral) (expr.Evaluator, error) {
	vals := make([]esql.Value, 0, len(a.Elems))
	typ := esql.TypeNull
	for _, elem := range a.Elems {
		val, err := b.literal(elem)
		if err != nil {
			return nil, err
		}
		t, ok := esql.Widen(typ, val.Type)
		if !ok {
			return nil, b.errorf(elem, "array elements must share a type, found [%s] and [%s]", typ, val.Type)
		}
		typ = t
		vals = append(vals, val)
	}
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		out = append(out, esql.Coerce(v.Any, typ))
	}
	return expr.NewArrayLiteral(typ, out), nil
}
