package op

import (
	"strconv"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

// Metadata columns that FROM ... METADATA may request.
const (
	MetadataIndex = "_index"
	MetadataID    = "_id"
)

// Scan reads the pages of a list of indices, conforming each to a common
// schema.  Columns missing from an index, or whose type differs from the
// schema, read as null.
type Scan struct {
	rctx    *runtime.Context
	catalog catalog.Catalog
	names   []string
	schema  vector.Schema

	index *catalog.Index
	next  int
	page  int
	rows  int
}

var _ vector.Puller = (*Scan)(nil)

func NewScan(rctx *runtime.Context, c catalog.Catalog, names []string, schema vector.Schema) *Scan {
	return &Scan{rctx: rctx, catalog: c, names: names, schema: schema}
}

func (s *Scan) Pull(done bool) (*vector.Page, error) {
	if done {
		s.index, s.next = nil, 0
		return nil, nil
	}
	for {
		if err := s.rctx.Err(); err != nil {
			return nil, err
		}
		if s.index == nil {
			if s.next >= len(s.names) {
				s.next = 0
				return nil, nil
			}
			index, err := s.catalog.Index(s.names[s.next])
			if err != nil {
				return nil, err
			}
			s.index, s.page, s.rows = index, 0, 0
			s.next++
		}
		if s.page >= len(s.index.Pages) {
			s.index = nil
			continue
		}
		page := s.conform(s.index.Pages[s.page])
		s.page++
		if page.Len() > 0 {
			return page, nil
		}
	}
}

func (s *Scan) conform(page *vector.Page) *vector.Page {
	n := page.Len()
	blocks := make([]vector.Block, 0, len(s.schema))
	for _, c := range s.schema {
		switch c.Name {
		case MetadataIndex:
			blocks = append(blocks, vector.NewConst(esql.NewKeyword(s.index.Name), n))
			continue
		case MetadataID:
			b := vector.NewBuilder[string](esql.TypeKeyword, n)
			for k := range n {
				b.Append(strconv.Itoa(s.rows + k))
			}
			blocks = append(blocks, b.Build())
			continue
		}
		b := page.Block(c.Name)
		if b == nil || b.Type() != c.Type {
			b = vector.NewNull(n)
		}
		blocks = append(blocks, b)
	}
	s.rows += n
	return vector.NewPage(s.schema, blocks, n)
}
