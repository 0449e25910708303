package op

import (
	"github.com/brimdata/esql/vector"
)

// Project reorders, drops, and renames columns.  It implements KEEP, DROP,
// and RENAME, whose column selection is resolved when the query is
// compiled.
type Project struct {
	parent vector.Puller
	index  []int
	schema vector.Schema
}

var _ vector.Puller = (*Project)(nil)

// NewProject returns a projection onto the input columns at index, named
// and typed by schema.
func NewProject(parent vector.Puller, index []int, schema vector.Schema) *Project {
	return &Project{parent: parent, index: index, schema: schema}
}

func (p *Project) Pull(done bool) (*vector.Page, error) {
	page, err := p.parent.Pull(done)
	if page == nil || err != nil {
		return nil, err
	}
	out := page.Project(p.index)
	out.Schema = p.schema
	return out, nil
}
