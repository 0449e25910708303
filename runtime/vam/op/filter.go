package op

import (
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

// Filter keeps the rows for which expr is true.  Null and false rows are
// dropped.
type Filter struct {
	parent vector.Puller
	expr   expr.Evaluator
}

var _ vector.Puller = (*Filter)(nil)

func NewFilter(parent vector.Puller, expr expr.Evaluator) *Filter {
	return &Filter{parent, expr}
}

func (f *Filter) Pull(done bool) (*vector.Page, error) {
	for {
		page, err := f.parent.Pull(done)
		if page == nil || err != nil {
			return nil, err
		}
		if masked, ok := applyMask(page, f.expr.Eval(page)); ok {
			return masked, nil
		}
	}
}

func applyMask(page *vector.Page, mask vector.Block) (*vector.Page, bool) {
	b := expr.BoolMask(mask)
	if b.IsEmpty() {
		return nil, false
	}
	if b.GetCardinality() == uint64(page.Len()) {
		return page, true
	}
	return page.Pick(b.ToArray()), true
}
