package exec

import (
	goruntime "runtime"

	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/vector"
)

const (
	DefaultLimit = 1000
	MaxLimit     = 10000
)

// Environment holds what a query may read beyond its own text: the indices
// of the catalog and the tables supplied with the request.
type Environment struct {
	Catalog catalog.Catalog
	Tables  map[string]*vector.Page
	// DefaultLimit caps the result of a query that ends without a LIMIT
	// and MaxLimit caps every LIMIT.
	DefaultLimit int
	MaxLimit     int
	// Workers is the number of pages EVAL computes concurrently.
	Workers int
}

func NewEnvironment(c catalog.Catalog) *Environment {
	return &Environment{
		Catalog:      c,
		DefaultLimit: DefaultLimit,
		MaxLimit:     MaxLimit,
		Workers:      goruntime.GOMAXPROCS(0),
	}
}

func (e *Environment) Table(name string) (*vector.Page, bool) {
	t, ok := e.Tables[name]
	return t, ok
}
