package vector

import (
	"github.com/brimdata/esql"
)

type Column struct {
	Name string        `json:"name"`
	Type esql.DataType `json:"type"`
}

type Schema []Column

// Index returns the position of the named column or -1.
func (s Schema) Index(name string) int {
	for k, c := range s {
		if c.Name == name {
			return k
		}
	}
	return -1
}

func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for _, c := range s {
		names = append(names, c.Name)
	}
	return names
}

// Page is a batch of rows stored as one block per column.
type Page struct {
	Schema Schema
	Blocks []Block
	length int
}

func NewPage(schema Schema, blocks []Block, length int) *Page {
	return &Page{Schema: schema, Blocks: blocks, length: length}
}

func (p *Page) Len() int {
	return p.length
}

func (p *Page) Block(name string) Block {
	if k := p.Schema.Index(name); k >= 0 {
		return p.Blocks[k]
	}
	return nil
}

// With returns a page with column c set to b.  An existing column of the
// same name is removed and the new column is placed last.
func (p *Page) With(c Column, b Block) *Page {
	schema := make(Schema, 0, len(p.Schema)+1)
	blocks := make([]Block, 0, len(p.Blocks)+1)
	for k, col := range p.Schema {
		if col.Name != c.Name {
			schema = append(schema, col)
			blocks = append(blocks, p.Blocks[k])
		}
	}
	return NewPage(append(schema, c), append(blocks, b), p.length)
}

// Project returns a page holding the columns at the given indexes.
func (p *Page) Project(index []int) *Page {
	schema := make(Schema, 0, len(index))
	blocks := make([]Block, 0, len(index))
	for _, k := range index {
		schema = append(schema, p.Schema[k])
		blocks = append(blocks, p.Blocks[k])
	}
	return NewPage(schema, blocks, p.length)
}

func (p *Page) Pick(index []uint32) *Page {
	blocks := make([]Block, 0, len(p.Blocks))
	for _, b := range p.Blocks {
		blocks = append(blocks, b.Pick(index))
	}
	return NewPage(p.Schema, blocks, len(index))
}

// Rows returns the content of p as one slice per row in the form
// returned by Get.
func (p *Page) Rows() [][]any {
	rows := make([][]any, 0, p.length)
	for pos := range p.length {
		row := make([]any, 0, len(p.Blocks))
		for _, b := range p.Blocks {
			row = append(row, Get(b, pos))
		}
		rows = append(rows, row)
	}
	return rows
}

type Puller interface {
	Pull(done bool) (*Page, error)
}

type puller struct {
	pages []*Page
}

func NewPuller(pages ...*Page) Puller {
	return &puller{pages}
}

func (p *puller) Pull(done bool) (*Page, error) {
	if done || len(p.pages) == 0 {
		p.pages = nil
		return nil, nil
	}
	page := p.pages[0]
	p.pages = p.pages[1:]
	return page, nil
}

// ReadAll pulls every page from puller.
func ReadAll(puller Puller) ([]*Page, error) {
	var pages []*Page
	for {
		page, err := puller.Pull(false)
		if page == nil || err != nil {
			return pages, err
		}
		pages = append(pages, page)
	}
}
