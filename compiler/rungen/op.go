package rungen

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/compiler/sfmt"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/runtime/vam/expr/agg"
	"github.com/brimdata/esql/runtime/vam/expr/function"
	"github.com/brimdata/esql/runtime/vam/op"
	"github.com/brimdata/esql/vector"
)

func (b *Builder) compileSource(cmd ast.Command) (vector.Puller, vector.Schema, error) {
	switch cmd := cmd.(type) {
	case *ast.From:
		return b.compileFrom(cmd)
	case *ast.Row:
		assignments, schema, err := b.compileAssignments(cmd.Fields, nil)
		if err != nil {
			return nil, nil, err
		}
		return op.NewRow(assignments), schema, nil
	case *ast.ShowInfo:
		version, date, hash := esql.BuildInfo()
		schema := vector.Schema{
			{Name: "version", Type: esql.TypeKeyword},
			{Name: "date", Type: esql.TypeKeyword},
			{Name: "hash", Type: esql.TypeKeyword},
		}
		return op.NewValues(schema, [][]any{{version, date, hash}}), schema, nil
	case *ast.MetaFunctions:
		return metaFunctions()
	case *ast.Explain:
		if _, _, err := b.Build(cmd.Query); err != nil {
			return nil, nil, err
		}
		schema := vector.Schema{
			{Name: "plan", Type: esql.TypeKeyword},
			{Name: "type", Type: esql.TypeKeyword},
		}
		return op.NewValues(schema, [][]any{{sfmt.Query(cmd.Query), "parsed"}}), schema, nil
	case *ast.Metrics:
		return nil, nil, b.errorf(cmd, "unsupported command [METRICS]")
	}
	return nil, nil, b.errorf(cmd, "[%s] cannot be used as a source command", b.text(cmd))
}

func (b *Builder) compileFrom(from *ast.From) (vector.Puller, vector.Schema, error) {
	var names []string
	for _, src := range from.Sources {
		matches, err := b.env.Catalog.Resolve(src.Name)
		if err != nil && !errors.Is(err, catalog.ErrNoSuchIndex) {
			return nil, nil, b.errorf(src, "%s", err)
		}
		if len(matches) == 0 {
			return nil, nil, b.errorf(src, "Unknown index [%s]", src.Name)
		}
		for _, name := range matches {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	var schema vector.Schema
	for _, name := range names {
		index, err := b.env.Catalog.Index(name)
		if err != nil {
			return nil, nil, b.errorf(from, "%s", err)
		}
		schema = unionSchema(schema, index.Schema)
	}
	slices.SortStableFunc(schema, func(a, b vector.Column) int {
		return strings.Compare(a.Name, b.Name)
	})
	for _, m := range from.Metadata {
		if m.Name != op.MetadataIndex && m.Name != op.MetadataID {
			return nil, nil, b.errorf(m, "unsupported metadata field [%s]", m.Name)
		}
		if schema.Index(m.Name) < 0 {
			schema = append(schema, vector.Column{Name: m.Name, Type: esql.TypeKeyword})
		}
	}
	return op.NewScan(b.rctx, b.env.Catalog, names, schema), schema, nil
}

// unionSchema adds the columns of s to u.  A column whose types differ
// across indices has type unsupported.
func unionSchema(u, s vector.Schema) vector.Schema {
	for _, c := range s {
		k := u.Index(c.Name)
		if k < 0 {
			u = append(u, c)
			continue
		}
		switch typ := u[k].Type; {
		case typ == c.Type:
		case typ == esql.TypeNull:
			u[k].Type = c.Type
		case c.Type == esql.TypeNull:
		default:
			u[k].Type = esql.TypeUnsupported
		}
	}
	return u
}

func metaFunctions() (vector.Puller, vector.Schema, error) {
	schema := vector.Schema{
		{Name: "name", Type: esql.TypeKeyword},
		{Name: "synopsis", Type: esql.TypeKeyword},
		{Name: "description", Type: esql.TypeKeyword},
		{Name: "is_variadic", Type: esql.TypeBoolean},
		{Name: "is_aggregation", Type: esql.TypeBoolean},
	}
	var rows [][]any
	for _, def := range function.Defs() {
		rows = append(rows, []any{def.Name, def.Synopsis, def.Description, def.ArgMax < 0, false})
	}
	for name, synopsis := range agg.Synopses() {
		rows = append(rows, []any{name, synopsis, nil, false, true})
	}
	slices.SortFunc(rows, func(a, b []any) int {
		return strings.Compare(a[0].(string), b[0].(string))
	})
	return op.NewValues(schema, rows), schema, nil
}

func (b *Builder) compileCommand(parent vector.Puller, schema vector.Schema, cmd, next ast.Command) (vector.Puller, vector.Schema, error) {
	switch cmd := cmd.(type) {
	case *ast.Where:
		e, err := b.compileExpr(cmd.Expr, schema)
		if err != nil {
			return nil, nil, err
		}
		if typ := e.Type(); typ != esql.TypeBoolean && typ != esql.TypeNull {
			return nil, nil, b.errorf(cmd.Expr, "Condition expression needs to be boolean, found [%s]", typ)
		}
		return op.NewFilter(parent, e), schema, nil
	case *ast.Eval:
		assignments, schema, err := b.compileAssignments(cmd.Fields, schema)
		if err != nil {
			return nil, nil, err
		}
		return op.NewEval(b.rctx, parent, assignments, b.env.Workers), schema, nil
	case *ast.Stats:
		return b.compileStats(parent, schema, cmd)
	case *ast.Sort:
		return b.compileSort(parent, schema, cmd, next)
	case *ast.Limit:
		n, err := b.limit(cmd)
		if err != nil {
			return nil, nil, err
		}
		return op.NewLimit(parent, n), schema, nil
	case *ast.Keep:
		index, err := b.matchColumns(cmd.Patterns, schema)
		if err != nil {
			return nil, nil, err
		}
		return project(parent, schema, index)
	case *ast.Drop:
		dropped, err := b.matchColumns(cmd.Patterns, schema)
		if err != nil {
			return nil, nil, err
		}
		var index []int
		for k := range schema {
			if !slices.Contains(dropped, k) {
				index = append(index, k)
			}
		}
		return project(parent, schema, index)
	case *ast.Rename:
		return b.compileRename(parent, schema, cmd)
	case *ast.Dissect:
		return b.compileDissect(parent, schema, cmd)
	case *ast.MvExpand:
		name, err := b.name(cmd.Field)
		if err != nil {
			return nil, nil, err
		}
		if _, err := b.field(cmd.Field, name, schema); err != nil {
			return nil, nil, err
		}
		return op.NewMvExpand(parent, name), schema, nil
	case *ast.Lookup:
		return b.compileLookup(parent, schema, cmd)
	case *ast.Grok:
		return nil, nil, b.errorf(cmd, "unsupported command [GROK]")
	case *ast.Enrich:
		return nil, nil, b.errorf(cmd, "unsupported command [ENRICH]")
	case *ast.InlineStats:
		return nil, nil, b.errorf(cmd, "unsupported command [INLINESTATS]")
	}
	return nil, nil, b.errorf(cmd, "[%s] cannot be used as a processing command", b.text(cmd))
}

// compileAssignments compiles fields in order, each seeing the columns
// assigned before it.
func (b *Builder) compileAssignments(fields []*ast.Field, schema vector.Schema) ([]op.Assignment, vector.Schema, error) {
	var assignments []op.Assignment
	for _, f := range fields {
		e, err := b.compileExpr(f.Expr, schema)
		if err != nil {
			return nil, nil, err
		}
		name, err := b.fieldName(f)
		if err != nil {
			return nil, nil, err
		}
		assignments = append(assignments, op.Assignment{Name: name, Expr: e})
		schema = withColumn(schema, vector.Column{Name: name, Type: e.Type()})
	}
	return assignments, schema, nil
}

// fieldName returns the column name of f, which defaults to the source
// text of its expression.
func (b *Builder) fieldName(f *ast.Field) (string, error) {
	if f.Name != nil {
		return b.name(f.Name)
	}
	if q, ok := f.Expr.(*ast.QualifiedName); ok {
		return b.name(q)
	}
	return b.text(f.Expr), nil
}

func (b *Builder) compileStats(parent vector.Puller, schema vector.Schema, stats *ast.Stats) (vector.Puller, vector.Schema, error) {
	var aggs []op.Aggregator
	for _, f := range stats.Aggregates {
		call, ok := f.Expr.(*ast.FunctionCall)
		if !ok || !agg.IsAggregate(call.Name) {
			return nil, nil, b.errorf(f.Expr, "expected an aggregate function but found [%s]", b.text(f.Expr))
		}
		var arg expr.Evaluator
		typ := esql.TypeNull
		star := call.Star
		switch len(call.Args) {
		case 0:
			if !star && !strings.EqualFold(call.Name, "count") {
				return nil, nil, b.errorf(call, "error building [%s]: %s", strings.ToLower(call.Name), function.ErrTooFewArgs)
			}
			star = true
		case 1:
			if inner, ok := call.Args[0].(*ast.FunctionCall); ok && agg.IsAggregate(inner.Name) {
				return nil, nil, b.errorf(inner, "aggregate function's parameters must be an attribute, literal or a non-aggregation function; found [%s]", b.text(inner))
			}
			var err error
			if arg, err = b.compileExpr(call.Args[0], schema); err != nil {
				return nil, nil, err
			}
			typ = arg.Type()
		default:
			return nil, nil, b.errorf(call, "error building [%s]: %s", strings.ToLower(call.Name), function.ErrTooManyArgs)
		}
		pattern, resultType, err := agg.NewPattern(call.Name, typ, star, b.warner(call))
		if err != nil {
			return nil, nil, b.errorf(call, "%s", err)
		}
		name, err := b.fieldName(f)
		if err != nil {
			return nil, nil, err
		}
		aggs = append(aggs, op.Aggregator{Name: name, Expr: arg, Pattern: pattern, Type: resultType})
	}
	keys, _, err := b.compileAssignments(stats.Groupings, schema)
	if err != nil {
		return nil, nil, err
	}
	s := op.NewStats(b.rctx, parent, aggs, keys)
	return s, s.Schema(), nil
}

func (b *Builder) compileSort(parent vector.Puller, schema vector.Schema, sort *ast.Sort, next ast.Command) (vector.Puller, vector.Schema, error) {
	var keys []op.SortKey
	for _, o := range sort.Orders {
		e, err := b.compileExpr(o.Expr, schema)
		if err != nil {
			return nil, nil, err
		}
		if e.Type() == esql.TypeUnsupported {
			return nil, nil, b.errorf(o.Expr, "cannot sort on [%s] of type unsupported", b.text(o.Expr))
		}
		desc := strings.EqualFold(o.Direction, "desc")
		nullsFirst := desc
		switch strings.ToLower(o.Nulls) {
		case "first":
			nullsFirst = true
		case "last":
			nullsFirst = false
		}
		keys = append(keys, op.SortKey{Expr: e, Desc: desc, NullsFirst: nullsFirst})
	}
	// A LIMIT right after SORT bounds the rows the sort keeps.
	limit := 0
	if l, ok := next.(*ast.Limit); ok {
		n, err := b.peekLimit(l)
		if err != nil {
			return nil, nil, err
		}
		limit = n
	}
	return op.NewSort(b.rctx, parent, keys, limit), schema, nil
}

// peekLimit evaluates a LIMIT without consuming an anonymous parameter so
// that the LIMIT command itself resolves the same one.
func (b *Builder) peekLimit(l *ast.Limit) (int, error) {
	style, anon := b.style, b.anon
	n, err := b.limit(l)
	b.style, b.anon = style, anon
	return n, err
}

func (b *Builder) limit(l *ast.Limit) (int, error) {
	var val esql.Value
	switch c := l.Count.(type) {
	case *ast.Literal:
		if c.Type != "integer" {
			return 0, b.errorf(c, "Invalid value for LIMIT [%s], expecting a non negative integer", c.Text)
		}
		val = parseInteger(c.Text)
	case *ast.Param:
		prm, err := b.param(c)
		if err != nil {
			return 0, err
		}
		val = prm.Value
	default:
		return 0, b.errorf(l.Count, "Invalid value for LIMIT [%s], expecting a non negative integer", b.text(l.Count))
	}
	var n int64
	switch val.Type {
	case esql.TypeInteger, esql.TypeLong:
		n = esql.ToInt64(val.Any)
	case esql.TypeUnsignedLong:
		n = int64(min(val.Any.(uint64), 1<<62))
	default:
		return 0, b.errorf(l.Count, "Invalid value for LIMIT [%s], expecting a non negative integer", val)
	}
	if n < 0 {
		return 0, b.errorf(l.Count, "Invalid value for LIMIT [%s], expecting a non negative integer", strconv.FormatInt(n, 10))
	}
	if b.env.MaxLimit > 0 && n > int64(b.env.MaxLimit) {
		n = int64(b.env.MaxLimit)
	}
	return int(n), nil
}

// pattern returns the text of a KEEP, DROP, RENAME, or LOOKUP name
// pattern.
func (b *Builder) pattern(p *ast.NamePattern) (string, error) {
	if p.Param != nil {
		return b.identParam(p.Param, true)
	}
	return p.Pattern, nil
}

// matchColumns returns the positions of the columns matched by patterns in
// the order the patterns list them.
func (b *Builder) matchColumns(patterns []*ast.NamePattern, schema vector.Schema) ([]int, error) {
	var index []int
	for _, p := range patterns {
		pattern, err := b.pattern(p)
		if err != nil {
			return nil, err
		}
		if !strings.Contains(pattern, "*") {
			k := schema.Index(pattern)
			if k < 0 {
				return nil, b.errorf(p, "%s", didYouMean("Unknown column ["+pattern+"]", suggest(pattern, schema.Names())))
			}
			// An exact name takes the column's place in the output even
			// when an earlier wildcard already matched it.
			index = slices.DeleteFunc(index, func(i int) bool { return i == k })
			index = append(index, k)
			continue
		}
		var matched bool
		for k, c := range schema {
			if catalog.Match(pattern, c.Name) {
				matched = true
				if !slices.Contains(index, k) {
					index = append(index, k)
				}
			}
		}
		if !matched && pattern != "*" {
			return nil, b.errorf(p, "No matches found for pattern [%s]", pattern)
		}
	}
	return index, nil
}

func project(parent vector.Puller, schema vector.Schema, index []int) (vector.Puller, vector.Schema, error) {
	out := make(vector.Schema, 0, len(index))
	for _, k := range index {
		out = append(out, schema[k])
	}
	return op.NewProject(parent, index, out), out, nil
}

func (b *Builder) compileRename(parent vector.Puller, schema vector.Schema, rename *ast.Rename) (vector.Puller, vector.Schema, error) {
	names := schema.Names()
	for _, clause := range rename.Clauses {
		old, err := b.pattern(clause.Old)
		if err != nil {
			return nil, nil, err
		}
		name, err := b.pattern(clause.New)
		if err != nil {
			return nil, nil, err
		}
		if strings.Contains(old, "*") || strings.Contains(name, "*") {
			return nil, nil, b.errorf(clause, "Using wildcards [*] in RENAME is not allowed [%s]", b.text(clause))
		}
		k := slices.Index(names, old)
		if k < 0 {
			return nil, nil, b.errorf(clause.Old, "%s", didYouMean("Unknown column ["+old+"]", suggest(old, names)))
		}
		// The renamed column shadows any other of the same name.
		if j := slices.Index(names, name); j >= 0 && j != k {
			names[j] = ""
		}
		names[k] = name
	}
	var index []int
	var out vector.Schema
	for k, name := range names {
		if name != "" {
			index = append(index, k)
			out = append(out, vector.Column{Name: name, Type: schema[k].Type})
		}
	}
	return op.NewProject(parent, index, out), out, nil
}

func (b *Builder) compileDissect(parent vector.Puller, schema vector.Schema, d *ast.Dissect) (vector.Puller, vector.Schema, error) {
	e, err := b.compileExpr(d.Expr, schema)
	if err != nil {
		return nil, nil, err
	}
	if typ := e.Type(); !typ.IsString() && typ != esql.TypeNull {
		return nil, nil, b.errorf(d.Expr, "Dissect only supports KEYWORD or TEXT values, found expression [%s] type [%s]", b.text(d.Expr), typ)
	}
	var separator string
	for _, opt := range d.Options {
		if !strings.EqualFold(opt.Name, "append_separator") {
			return nil, nil, b.errorf(opt, "Invalid option for dissect: [%s]", opt.Name)
		}
		v, err := b.compileExpr(opt.Value, nil)
		if err != nil {
			return nil, nil, err
		}
		lit, ok := v.(*expr.Literal)
		var val esql.Value
		if ok {
			val, ok = lit.Value()
		}
		if !ok || !val.Type.IsString() {
			return nil, nil, b.errorf(opt.Value, "Invalid value for dissect append_separator: expected a string, but was [%s]", b.text(opt.Value))
		}
		separator = val.Any.(string)
	}
	dissector, err := op.NewDissector(d.Pattern, separator)
	if err != nil {
		return nil, nil, b.errorf(d, "%s", err)
	}
	for _, name := range dissector.Names() {
		schema = withColumn(schema, vector.Column{Name: name, Type: esql.TypeKeyword})
	}
	return op.NewDissect(parent, e, dissector, b.warner(d)), schema, nil
}

func (b *Builder) compileLookup(parent vector.Puller, schema vector.Schema, l *ast.Lookup) (vector.Puller, vector.Schema, error) {
	table, ok := b.env.Table(l.Table)
	if !ok {
		var names []string
		for name := range b.env.Tables {
			names = append(names, name)
		}
		slices.Sort(names)
		return nil, nil, b.errorf(l, "%s", didYouMean("Unknown table ["+l.Table+"]", suggest(l.Table, names)))
	}
	var keys []op.LookupKey
	for _, p := range l.On {
		name, err := b.pattern(p)
		if err != nil {
			return nil, nil, err
		}
		in := schema.Index(name)
		if in < 0 {
			return nil, nil, b.errorf(p, "%s", didYouMean("Unknown column ["+name+"] in lookup input", suggest(name, schema.Names())))
		}
		k := table.Schema.Index(name)
		if k < 0 {
			return nil, nil, b.errorf(p, "Unknown column [%s] in table [%s]", name, l.Table)
		}
		typ, ok := esql.Widen(schema[in].Type, table.Schema[k].Type)
		if !ok {
			return nil, nil, b.errorf(p, "column type mismatch, table column [%s] was [%s] but input column was [%s]", name, table.Schema[k].Type, schema[in].Type)
		}
		keys = append(keys, op.LookupKey{Input: name, Table: k, Type: typ})
	}
	for k, c := range table.Schema {
		if !slices.ContainsFunc(keys, func(key op.LookupKey) bool { return key.Table == k }) {
			schema = withColumn(schema, c)
		}
	}
	return op.NewLookup(parent, table, keys, b.warner(l)), schema, nil
}
