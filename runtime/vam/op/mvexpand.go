package op

import (
	"github.com/brimdata/esql/vector"
)

// MvExpand turns each value of a multi-valued column into a row of its
// own, duplicating the other columns.  Null rows are kept.
type MvExpand struct {
	parent vector.Puller
	column string
}

var _ vector.Puller = (*MvExpand)(nil)

func NewMvExpand(parent vector.Puller, column string) *MvExpand {
	return &MvExpand{parent: parent, column: column}
}

func (m *MvExpand) Pull(done bool) (*vector.Page, error) {
	page, err := m.parent.Pull(done)
	if page == nil || err != nil {
		return nil, err
	}
	k := page.Schema.Index(m.column)
	if k < 0 {
		return page, nil
	}
	src := page.Blocks[k]
	expanded := false
	for pos := range page.Len() {
		if src.ValueCount(pos) > 1 {
			expanded = true
			break
		}
	}
	if !expanded {
		return page, nil
	}
	var index []uint32
	b := vector.NewBuilderFor(src.Type(), page.Len())
	for pos := range page.Len() {
		first, n := src.FirstValueIndex(pos), src.ValueCount(pos)
		if n == 0 {
			index = append(index, uint32(pos))
			b.AppendNull()
			continue
		}
		for i := first; i < first+n; i++ {
			index = append(index, uint32(pos))
			b.AppendAny(src.Any(i))
		}
	}
	out := page.Pick(index)
	out.Blocks[k] = b.Build()
	return out, nil
}
