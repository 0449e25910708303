package op

import (
	"encoding/binary"
	"fmt"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/runtime/vam/expr/agg"
	"github.com/brimdata/esql/vector"
)

// Aggregator is one aggregation of a STATS command.  Expr is nil for
// count(*).
type Aggregator struct {
	Name    string
	Expr    expr.Evaluator
	Pattern agg.Pattern
	Type    esql.DataType
}

type group struct {
	keys []any
	aggs []agg.Func
}

// Stats computes aggregations grouped by the values of its keys.  Groups
// are emitted in the order they were first seen, with the aggregate
// columns followed by the key columns.  A row whose key is a multi-value
// contributes to the group of each of its values.  Without keys, Stats
// emits exactly one row.
type Stats struct {
	rctx   *runtime.Context
	parent vector.Puller
	aggs   []Aggregator
	keys   []Assignment
	schema vector.Schema

	table  map[string]*group
	groups []*group
	result []*vector.Page
	ran    bool
}

var _ vector.Puller = (*Stats)(nil)

func NewStats(rctx *runtime.Context, parent vector.Puller, aggs []Aggregator, keys []Assignment) *Stats {
	var schema vector.Schema
	for _, a := range aggs {
		schema = append(schema, vector.Column{Name: a.Name, Type: a.Type})
	}
	for _, k := range keys {
		schema = append(schema, vector.Column{Name: k.Name, Type: k.Expr.Type()})
	}
	return &Stats{
		rctx:   rctx,
		parent: parent,
		aggs:   aggs,
		keys:   keys,
		schema: schema,
	}
}

func (s *Stats) Schema() vector.Schema {
	return s.schema
}

func (s *Stats) Pull(done bool) (*vector.Page, error) {
	if done {
		s.reset()
		_, err := s.parent.Pull(true)
		return nil, err
	}
	if !s.ran {
		if err := s.run(); err != nil {
			return nil, err
		}
		s.ran = true
	}
	if len(s.result) == 0 {
		s.reset()
		return nil, nil
	}
	page := s.result[0]
	s.result = s.result[1:]
	return page, nil
}

func (s *Stats) reset() {
	s.table = nil
	s.groups = nil
	s.result = nil
	s.ran = false
}

func (s *Stats) run() error {
	s.table = make(map[string]*group)
	if len(s.keys) == 0 {
		s.newGroup("", nil)
	}
	for {
		if err := s.rctx.Err(); err != nil {
			return err
		}
		page, err := s.parent.Pull(false)
		if err != nil {
			return err
		}
		if page == nil {
			break
		}
		s.consume(page)
	}
	for len(s.groups) > 0 {
		n := min(len(s.groups), PageSize)
		s.result = append(s.result, s.build(s.groups[:n]))
		s.groups = s.groups[n:]
	}
	return nil
}

func (s *Stats) newGroup(key string, keys []any) *group {
	g := &group{keys: keys}
	for _, a := range s.aggs {
		g.aggs = append(g.aggs, a.Pattern())
	}
	s.table[key] = g
	s.groups = append(s.groups, g)
	return g
}

func (s *Stats) consume(page *vector.Page) {
	n := page.Len()
	vals := make([]vector.Block, 0, len(s.aggs))
	for _, a := range s.aggs {
		if a.Expr == nil {
			vals = append(vals, vector.NewNull(n))
			continue
		}
		vals = append(vals, a.Expr.Eval(page))
	}
	keys := make([]vector.Block, 0, len(s.keys))
	for _, k := range s.keys {
		keys = append(keys, k.Expr.Eval(page))
	}
	var scratch []byte
	for pos := range n {
		if len(keys) == 0 {
			s.update(s.table[""], vals, pos)
			continue
		}
		combos := [][]any{nil}
		for _, b := range keys {
			choices := vector.Scalars(b, pos)
			if len(choices) == 0 {
				choices = []any{nil}
			}
			next := make([][]any, 0, len(combos)*len(choices))
			for _, c := range combos {
				for _, v := range choices {
					next = append(next, append(c[:len(c):len(c)], v))
				}
			}
			combos = next
		}
		for _, c := range combos {
			scratch = appendGroupKey(scratch[:0], c)
			g, ok := s.table[string(scratch)]
			if !ok {
				g = s.newGroup(string(scratch), c)
			}
			s.update(g, vals, pos)
		}
	}
}

func (s *Stats) update(g *group, vals []vector.Block, pos int) {
	for k, f := range g.aggs {
		f.Consume(vals[k], pos)
	}
}

func appendGroupKey(b []byte, vals []any) []byte {
	for _, v := range vals {
		if v == nil {
			b = append(b, 0)
			continue
		}
		s := fmt.Sprint(v)
		b = append(b, 1)
		b = binary.AppendUvarint(b, uint64(len(s)))
		b = append(b, s...)
	}
	return b
}

func (s *Stats) build(groups []*group) *vector.Page {
	builders := make([]vector.AnyBuilder, 0, len(s.schema))
	for _, c := range s.schema {
		builders = append(builders, vector.NewBuilderFor(c.Type, len(groups)))
	}
	for _, g := range groups {
		for k, f := range g.aggs {
			f.Result(builders[k])
		}
		for k, v := range g.keys {
			appendAny(builders[len(s.aggs)+k], v)
		}
	}
	blocks := make([]vector.Block, 0, len(builders))
	for _, b := range builders {
		blocks = append(blocks, b.Build())
	}
	return vector.NewPage(s.schema, blocks, len(groups))
}
