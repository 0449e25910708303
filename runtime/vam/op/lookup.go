package op

import (
	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

// LookupKey pairs a column of the input with the table column it must
// equal.  Values of both are compared as Type.
type LookupKey struct {
	Input string
	Table int
	Type  esql.DataType
}

// Lookup joins each row with the rows of a small in-memory table whose key
// columns equal those of the row, adding the remaining table columns.
// Several matches produce multi-values and no match produces nulls.
type Lookup struct {
	parent  vector.Puller
	table   *vector.Page
	keys    []LookupKey
	columns []int
	warner  *runtime.Warner
	index   map[string][]int
}

var _ vector.Puller = (*Lookup)(nil)

func NewLookup(parent vector.Puller, table *vector.Page, keys []LookupKey, w *runtime.Warner) *Lookup {
	l := &Lookup{
		parent: parent,
		table:  table,
		keys:   keys,
		warner: w,
		index:  make(map[string][]int),
	}
	for k := range table.Schema {
		if !l.isKey(k) {
			l.columns = append(l.columns, k)
		}
	}
	vals := make([]any, len(keys))
	var scratch []byte
	for row := range table.Len() {
		ok := true
		for i, key := range keys {
			v, single := expr.Single(table.Blocks[key.Table], row, nil)
			ok = ok && single
			vals[i] = esql.Coerce(v, key.Type)
		}
		if ok {
			scratch = appendGroupKey(scratch[:0], vals)
			l.index[string(scratch)] = append(l.index[string(scratch)], row)
		}
	}
	return l
}

func (l *Lookup) isKey(column int) bool {
	for _, key := range l.keys {
		if key.Table == column {
			return true
		}
	}
	return false
}

func (l *Lookup) Pull(done bool) (*vector.Page, error) {
	page, err := l.parent.Pull(done)
	if page == nil || err != nil {
		return nil, err
	}
	inputs := make([]vector.Block, 0, len(l.keys))
	for _, key := range l.keys {
		b := page.Block(key.Input)
		if b == nil {
			b = vector.NewNull(page.Len())
		}
		inputs = append(inputs, b)
	}
	builders := make([]vector.AnyBuilder, 0, len(l.columns))
	for _, k := range l.columns {
		builders = append(builders, vector.NewBuilderFor(l.table.Schema[k].Type, page.Len()))
	}
	vals := make([]any, len(l.keys))
	var scratch []byte
	for pos := range page.Len() {
		var matches []int
		if vals, ok := expr.Singles(inputs, pos, l.warner, vals); ok {
			for i, key := range l.keys {
				vals[i] = esql.Coerce(vals[i], key.Type)
			}
			scratch = appendGroupKey(scratch[:0], vals)
			matches = l.index[string(scratch)]
		}
		for i, k := range l.columns {
			var out []any
			for _, row := range matches {
				out = append(out, vector.Scalars(l.table.Blocks[k], row)...)
			}
			switch len(out) {
			case 0:
				builders[i].AppendNull()
			case 1:
				builders[i].AppendAny(out[0])
			default:
				appendAny(builders[i], out)
			}
		}
	}
	for i, k := range l.columns {
		page = page.With(l.table.Schema[k], builders[i].Build())
	}
	return page, nil
}
