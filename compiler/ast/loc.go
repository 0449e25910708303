// Package ast declares the syntax tree of a piped query.  Every node
// records the byte offsets of the source text it was parsed from so that
// errors and warnings can point back at it.
package ast

type Node interface {
	Pos() int // Offset of the first byte of the node.
	End() int // Offset just past the last byte of the node.
}

// Loc is embedded in every node.
type Loc struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

func NewLoc(first, last int) Loc {
	return Loc{First: first, Last: last}
}

func (l Loc) Pos() int { return l.First }
func (l Loc) End() int { return l.Last }
