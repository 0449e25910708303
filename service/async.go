package service

import (
	"context"
	"sync"
	"time"

	"github.com/brimdata/esql/api"
	"github.com/brimdata/esql/api/queryio"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/sio/anyio"
	"github.com/brimdata/esql/vector"
	"github.com/hashicorp/golang-lru/arc/v2"
	"go.uber.org/zap"
)

// asyncQuery is a query started by POST /_query/async.  Its pages are
// kept in memory so the result can be rendered in whatever format a later
// GET asks for.
type asyncQuery struct {
	id     string
	req    *api.QueryRequest
	query  *exec.Query
	logger *zap.Logger
	done   chan struct{}

	// Set by run before done is closed.
	schema   vector.Schema
	pages    []*vector.Page
	warnings []string
	took     time.Duration
	err      error

	mu      sync.Mutex
	expires time.Time
}

func newAsyncQuery(id string, req *api.QueryRequest, q *exec.Query, logger *zap.Logger) *asyncQuery {
	return &asyncQuery{
		id:     id,
		req:    req,
		query:  q,
		logger: logger,
		done:   make(chan struct{}),
		schema: q.Schema(),
	}
}

// recorder keeps a copy of every page it passes along.
type recorder struct {
	queryio.Query
	pages []*vector.Page
}

func (r *recorder) Pull(done bool) (*vector.Page, error) {
	page, err := r.Query.Pull(done)
	if page != nil && !done {
		r.pages = append(r.pages, page)
	}
	return page, err
}

func (a *asyncQuery) run() {
	defer close(a.done)
	defer a.query.Close()
	rec := &recorder{Query: a.query}
	// The null format drives the query to completion with the logging and
	// timing of a synchronous query.
	stream, err := queryio.NewStream(rec, a.req.Query, anyio.WriterOpts{Format: "null"}, 0, a.logger)
	if err == nil {
		for {
			var chunk []byte
			chunk, err = stream.Pull(false)
			if chunk == nil || err != nil {
				break
			}
		}
	}
	if err == nil {
		a.took = stream.Took()
	}
	a.pages = rec.pages
	a.warnings = a.query.Warnings()
	a.err = err
}

// wait reports whether the query finished within timeout.
func (a *asyncQuery) wait(ctx context.Context, timeout time.Duration) bool {
	select {
	case <-a.done:
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-a.done:
		return true
	case <-timer.C:
	case <-ctx.Done():
	}
	return false
}

func (a *asyncQuery) cancel() {
	a.query.Close()
}

func (a *asyncQuery) keepAlive(d time.Duration) {
	a.mu.Lock()
	a.expires = time.Now().Add(d)
	a.mu.Unlock()
}

func (a *asyncQuery) expired(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return now.After(a.expires)
}

// asyncStore holds async queries until they expire or are deleted.  Once
// the store is full the least valuable entries are evicted by the ARC
// policy.
type asyncStore struct {
	cache *arc.ARCCache[string, *asyncQuery]
}

func newAsyncStore(size int) (*asyncStore, error) {
	cache, err := arc.NewARC[string, *asyncQuery](size)
	if err != nil {
		return nil, err
	}
	return &asyncStore{cache: cache}, nil
}

func (s *asyncStore) add(a *asyncQuery) {
	s.cache.Add(a.id, a)
}

func (s *asyncStore) get(id string) (*asyncQuery, bool) {
	a, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	if a.expired(time.Now()) {
		s.cache.Remove(id)
		a.cancel()
		return nil, false
	}
	return a, true
}

func (s *asyncStore) remove(id string) (*asyncQuery, bool) {
	a, ok := s.cache.Peek(id)
	if ok {
		s.cache.Remove(id)
	}
	return a, ok
}

func (s *asyncStore) purge() {
	for _, a := range s.cache.Values() {
		a.cancel()
	}
	s.cache.Purge()
}
