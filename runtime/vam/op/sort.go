package op

import (
	"slices"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

// PageSize is the number of rows per page produced by operators that
// materialize their input.
const PageSize = 1024

type SortKey struct {
	Expr       expr.Evaluator
	Desc       bool
	NullsFirst bool
}

// Sort materializes its input and emits it ordered by keys.  A multi-value
// sorts by its smallest value in ascending order and by its largest in
// descending order.  Rows with equal keys keep their input order.  If limit
// is positive, only the first limit rows are kept.
type Sort struct {
	rctx   *runtime.Context
	parent vector.Puller
	keys   []SortKey
	limit  int

	schema vector.Schema
	result []*vector.Page
	sorted bool
}

var _ vector.Puller = (*Sort)(nil)

func NewSort(rctx *runtime.Context, parent vector.Puller, keys []SortKey, limit int) *Sort {
	return &Sort{rctx: rctx, parent: parent, keys: keys, limit: limit}
}

type sortRow struct {
	page int
	pos  int
	keys []any
}

func (s *Sort) Pull(done bool) (*vector.Page, error) {
	if done {
		s.result = nil
		s.sorted = false
		_, err := s.parent.Pull(true)
		return nil, err
	}
	if !s.sorted {
		if err := s.sort(); err != nil {
			return nil, err
		}
		s.sorted = true
	}
	if len(s.result) == 0 {
		s.result = nil
		s.sorted = false
		return nil, nil
	}
	page := s.result[0]
	s.result = s.result[1:]
	return page, nil
}

func (s *Sort) sort() error {
	var pages []*vector.Page
	var rows []sortRow
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
		blocks := make([]vector.Block, 0, len(s.keys))
		for _, k := range s.keys {
			blocks = append(blocks, k.Expr.Eval(page))
		}
		for pos := range page.Len() {
			keys := make([]any, len(s.keys))
			for i, k := range s.keys {
				keys[i] = sortValue(blocks[i], pos, k.Desc)
			}
			rows = append(rows, sortRow{page: len(pages), pos: pos, keys: keys})
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return nil
	}
	s.schema = pages[0].Schema
	slices.SortStableFunc(rows, s.compare)
	if s.limit > 0 && len(rows) > s.limit {
		rows = rows[:s.limit]
	}
	for len(rows) > 0 {
		n := min(len(rows), PageSize)
		s.result = append(s.result, s.build(pages, rows[:n]))
		rows = rows[n:]
	}
	return nil
}

func sortValue(b vector.Block, pos int, desc bool) any {
	first, n := b.FirstValueIndex(pos), b.ValueCount(pos)
	if n == 0 {
		return nil
	}
	v := b.Any(first)
	for i := first + 1; i < first+n; i++ {
		c := esql.Compare(b.Type(), b.Any(i), v)
		if (desc && c > 0) || (!desc && c < 0) {
			v = b.Any(i)
		}
	}
	return v
}

func (s *Sort) compare(a, b sortRow) int {
	for k, key := range s.keys {
		x, y := a.keys[k], b.keys[k]
		switch {
		case x == nil && y == nil:
			continue
		case x == nil:
			if key.NullsFirst {
				return -1
			}
			return 1
		case y == nil:
			if key.NullsFirst {
				return 1
			}
			return -1
		}
		c := esql.Compare(key.Expr.Type(), x, y)
		if key.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func (s *Sort) build(pages []*vector.Page, rows []sortRow) *vector.Page {
	builders := make([]vector.AnyBuilder, 0, len(s.schema))
	for _, c := range s.schema {
		builders = append(builders, vector.NewBuilderFor(c.Type, len(rows)))
	}
	for _, row := range rows {
		page := pages[row.page]
		for k, b := range builders {
			vector.CopyPosition(b, page.Blocks[k], row.pos)
		}
	}
	blocks := make([]vector.Block, 0, len(builders))
	for _, b := range builders {
		blocks = append(blocks, b.Build())
	}
	return vector.NewPage(s.schema, blocks, len(rows))
}
