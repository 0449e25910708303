package op

import (
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
	"golang.org/x/sync/errgroup"
)

// Eval appends the result of each assignment to every page, replacing an
// existing column of the same name.  Up to workers pages are evaluated
// concurrently and returned in the order they were pulled.  Warnings are
// reported as if the pages had been evaluated one after another.
type Eval struct {
	rctx        *runtime.Context
	parent      vector.Puller
	assignments []Assignment
	workers     int

	queue []*vector.Page
	eof   bool
}

var _ vector.Puller = (*Eval)(nil)

func NewEval(rctx *runtime.Context, parent vector.Puller, assignments []Assignment, workers int) *Eval {
	return &Eval{
		rctx:        rctx,
		parent:      parent,
		assignments: assignments,
		workers:     max(workers, 1),
	}
}

func (e *Eval) Pull(done bool) (*vector.Page, error) {
	if done {
		e.queue = nil
		e.eof = false
		return e.parent.Pull(true)
	}
	if len(e.queue) == 0 && !e.eof {
		if err := e.fill(); err != nil {
			return nil, err
		}
	}
	if len(e.queue) == 0 {
		e.eof = false
		return nil, nil
	}
	page := e.queue[0]
	e.queue = e.queue[1:]
	return page, nil
}

func (e *Eval) fill() error {
	var pages []*vector.Page
	for len(pages) < e.workers {
		page, err := e.parent.Pull(false)
		if err != nil {
			return err
		}
		if page == nil {
			e.eof = true
			break
		}
		pages = append(pages, page)
	}
	if len(pages) == 1 {
		e.queue = []*vector.Page{e.apply(pages[0])}
		return nil
	}
	out := make([]*vector.Page, len(pages))
	release := e.rctx.Capture()
	g, ctx := errgroup.WithContext(e.rctx)
	for k, page := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[k] = e.apply(page)
			return nil
		})
	}
	err := g.Wait()
	failed := release()
	if err != nil {
		return err
	}
	if failed {
		// Warnings must come out in page order, so a batch that raised
		// any is evaluated again one page at a time.
		for k, page := range pages {
			out[k] = e.apply(page)
		}
	}
	e.queue = out
	return nil
}

func (e *Eval) apply(page *vector.Page) *vector.Page {
	for _, a := range e.assignments {
		page = page.With(vector.Column{Name: a.Name, Type: a.Expr.Type()}, a.Expr.Eval(page))
	}
	return page
}
