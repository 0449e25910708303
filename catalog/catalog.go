// Package catalog provides the indices that FROM reads.
package catalog

import (
	"errors"
	"path"
	"strings"

	"github.com/brimdata/esql/vector"
)

var ErrNoSuchIndex = errors.New("no such index")

// Index is a named collection of rows stored as pages that share Schema.
type Index struct {
	Name   string
	Schema vector.Schema
	Pages  []*vector.Page
}

func (i *Index) Len() int {
	var n int
	for _, p := range i.Pages {
		n += p.Len()
	}
	return n
}

//go:generate go tool mockgen -destination=./mock/mock.go -package=mock github.com/brimdata/esql/catalog Catalog

type Catalog interface {
	// Resolve returns the sorted names of the indices matching pattern,
	// which may contain "*" wildcards.
	Resolve(pattern string) ([]string, error)
	Index(name string) (*Index, error)
}

// Match reports whether name matches the index pattern, in which "*"
// matches any sequence of characters.
func Match(pattern, name string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == name
	}
	// Escape the characters path.Match treats specially other than "*".
	r := strings.NewReplacer(`\`, `\\`, `?`, `\?`, `[`, `\[`)
	ok, err := path.Match(r.Replace(pattern), name)
	return err == nil && ok
}
