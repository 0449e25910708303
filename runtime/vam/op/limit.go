package op

import (
	"github.com/brimdata/esql/vector"
)

// Limit passes through the first limit rows and then stops its parent.
type Limit struct {
	parent vector.Puller
	limit  int
	count  int
}

var _ vector.Puller = (*Limit)(nil)

func NewLimit(parent vector.Puller, limit int) *Limit {
	return &Limit{
		parent: parent,
		limit:  limit,
	}
}

func (l *Limit) Pull(done bool) (*vector.Page, error) {
	if done || l.count >= l.limit {
		l.count = 0
		_, err := l.parent.Pull(true)
		return nil, err
	}
	page, err := l.parent.Pull(false)
	if page == nil || err != nil {
		l.count = 0
		return nil, err
	}
	remaining := l.limit - l.count
	n := page.Len()
	if n <= remaining {
		l.count += n
		return page, nil
	}
	l.count = l.limit
	index := make([]uint32, remaining)
	for i := range index {
		index[i] = uint32(i)
	}
	return page.Pick(index), nil
}
