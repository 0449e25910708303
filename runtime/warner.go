package runtime

import (
	"fmt"
	"sync"
)

// MaxWarnings is the number of failures a single expression reports before
// it goes quiet.
const MaxWarnings = 20

// Warner records the evaluation failures of one expression.  A failure
// turns the offending value into null, and the first MaxWarnings failures
// are reported to the Context, preceded by a line naming the expression.
// A nil Warner discards everything.
type Warner struct {
	rctx     *Context
	location string
	text     string

	mu    sync.Mutex
	count int
}

func NewWarner(rctx *Context, line, column int, text string) *Warner {
	if rctx == nil {
		return nil
	}
	return &Warner{
		rctx:     rctx,
		location: fmt.Sprintf("Line %d:%d: ", line, column),
		text:     text,
	}
}

func (w *Warner) Warn(err error) {
	if w == nil || w.rctx.suppressed() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count >= MaxWarnings {
		return
	}
	if w.count == 0 {
		w.rctx.Warn(fmt.Sprintf("%sevaluation of [%s] failed, treating result as null. Only first %d failures recorded.", w.location, w.text, MaxWarnings))
	}
	w.rctx.Warn(w.location + err.Error())
	w.count++
}
