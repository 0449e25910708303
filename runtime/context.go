package runtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"
)

// Context provides states used by all operators to provide the outside
// context in which they are running.
type Context struct {
	context.Context
	// WaitGroup is used to ensure that goroutines complete cleanup work
	// before Cancel returns.
	WaitGroup sync.WaitGroup
	// Locale drives locale-sensitive functions such as to_upper.
	Locale language.Tag
	// Now is fixed when the query starts so every call to now() agrees.
	Now    time.Time
	cancel context.CancelFunc

	mu       sync.Mutex
	warnings []string
	seen     map[string]struct{}

	capturing atomic.Bool
	captured  atomic.Bool
}

func NewContext(ctx context.Context, locale language.Tag) *Context {
	ctx, cancel := context.WithCancel(ctx)
	return &Context{
		Context: ctx,
		Locale:  locale,
		Now:     time.Now().UTC(),
		cancel:  cancel,
		seen:    make(map[string]struct{}),
	}
}

func DefaultContext() *Context {
	return NewContext(context.Background(), language.AmericanEnglish)
}

// Cancel cancels the context.  Cancel must be called to ensure that operators
// complete cleanup work.
func (c *Context) Cancel() {
	c.cancel()
	c.WaitGroup.Wait()
}

// Warn records msg unless an identical warning was already recorded.
func (c *Context) Warn(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[msg]; ok {
		return
	}
	c.seen[msg] = struct{}{}
	c.warnings = append(c.warnings, msg)
}

// Capture holds back warnings until the returned function is called.  It
// reports whether any expression failed in the meantime.  Failures seen
// while captured are neither recorded nor counted against an expression's
// limit, so the caller must evaluate again to report them.
func (c *Context) Capture() func() bool {
	c.captured.Store(false)
	c.capturing.Store(true)
	return func() bool {
		c.capturing.Store(false)
		return c.captured.Swap(false)
	}
}

func (c *Context) suppressed() bool {
	if c.capturing.Load() {
		c.captured.Store(true)
		return true
	}
	return false
}

// Warnings returns the warnings recorded so far in the order they were
// first seen.
func (c *Context) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}
