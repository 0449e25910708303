package ast

import (
	"strconv"
	"strings"
)

type Expr interface {
	Node
	exprNode()
}

type (
	// LogicalBinary is an AND or OR of two boolean expressions.
	LogicalBinary struct {
		Kind string `json:"kind"`
		Op   string `json:"op"`
		LHS  Expr   `json:"lhs"`
		RHS  Expr   `json:"rhs"`
		Loc  `json:"loc"`
	}
	LogicalNot struct {
		Kind string `json:"kind"`
		Expr Expr   `json:"expr"`
		Loc  `json:"loc"`
	}
	// Comparison compares two operator expressions with one of
	// ==, !=, <, <=, >, >=, or =~ (case-insensitive equality).
	Comparison struct {
		Kind string `json:"kind"`
		Op   string `json:"op"`
		LHS  Expr   `json:"lhs"`
		RHS  Expr   `json:"rhs"`
		Loc  `json:"loc"`
	}
	ArithmeticBinary struct {
		Kind string `json:"kind"`
		Op   string `json:"op"`
		LHS  Expr   `json:"lhs"`
		RHS  Expr   `json:"rhs"`
		Loc  `json:"loc"`
	}
	ArithmeticUnary struct {
		Kind    string `json:"kind"`
		Op      string `json:"op"`
		Operand Expr   `json:"operand"`
		Loc     `json:"loc"`
	}
	InlineCast struct {
		Kind string `json:"kind"`
		Expr Expr   `json:"expr"`
		Type string `json:"type"`
		Loc  `json:"loc"`
	}
	// FunctionCall is a scalar function or, in STATS, an aggregation.
	// Star is set for the form name(*).
	FunctionCall struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
		Args []Expr `json:"args"`
		Star bool   `json:"star"`
		Loc  `json:"loc"`
	}
	InList struct {
		Kind string `json:"kind"`
		Not  bool   `json:"not"`
		Expr Expr   `json:"expr"`
		List []Expr `json:"list"`
		Loc  `json:"loc"`
	}
	IsNull struct {
		Kind string `json:"kind"`
		Not  bool   `json:"not"`
		Expr Expr   `json:"expr"`
		Loc  `json:"loc"`
	}
	// RegexMatch is LIKE or RLIKE.  Pattern is a string literal or a
	// parameter.
	RegexMatch struct {
		Kind    string `json:"kind"`
		Op      string `json:"op"`
		Not     bool   `json:"not"`
		Expr    Expr   `json:"expr"`
		Pattern Expr   `json:"pattern"`
		Loc     `json:"loc"`
	}
	// Literal is a constant.  Type is one of "null", "boolean",
	// "integer", "decimal", or "string".  Text is the literal's
	// source text with string quoting and escapes removed.
	Literal struct {
		Kind string `json:"kind"`
		Type string `json:"type"`
		Text string `json:"text"`
		Loc  `json:"loc"`
	}
	// QualifiedInteger is an integer with a time unit, e.g., "1 day".
	QualifiedInteger struct {
		Kind  string   `json:"kind"`
		Value *Literal `json:"value"`
		Unit  string   `json:"unit"`
		Loc   `json:"loc"`
	}
	// ArrayLiteral is a bracketed list of numeric, boolean, or string
	// constants.  Elems share one Literal type family.
	ArrayLiteral struct {
		Kind  string     `json:"kind"`
		Elems []*Literal `json:"elems"`
		Loc   `json:"loc"`
	}
	// Param is an input parameter marker: "?" (Name and Position
	// empty), "?name", or the 1-based positional form "?1".
	Param struct {
		Kind     string `json:"kind"`
		Name     string `json:"name,omitempty"`
		Position int    `json:"position,omitempty"`
		Loc      `json:"loc"`
	}
	// QualifiedName is a dotted field reference.  A part may be a
	// parameter that supplies an identifier.
	QualifiedName struct {
		Kind  string     `json:"kind"`
		Parts []NamePart `json:"parts"`
		Loc   `json:"loc"`
	}
	// NamePattern is a dotted field name that may contain "*"
	// wildcards or be given by a parameter.
	NamePattern struct {
		Kind    string `json:"kind"`
		Pattern string `json:"pattern"`
		Param   *Param `json:"param,omitempty"`
		Loc     `json:"loc"`
	}
)

type NamePart struct {
	Name  string `json:"name,omitempty"`
	Param *Param `json:"param,omitempty"`
}

func (*LogicalBinary) exprNode()    {}
func (*LogicalNot) exprNode()       {}
func (*Comparison) exprNode()       {}
func (*ArithmeticBinary) exprNode() {}
func (*ArithmeticUnary) exprNode()  {}
func (*InlineCast) exprNode()       {}
func (*FunctionCall) exprNode()     {}
func (*InList) exprNode()           {}
func (*IsNull) exprNode()           {}
func (*RegexMatch) exprNode()       {}
func (*Literal) exprNode()          {}
func (*QualifiedInteger) exprNode() {}
func (*ArrayLiteral) exprNode()     {}
func (*Param) exprNode()            {}
func (*QualifiedName) exprNode()    {}
func (*NamePattern) exprNode()      {}

// Name returns the dotted name of q.  Parameter parts are rendered as
// their markers.
func (q *QualifiedName) Name() string {
	parts := make([]string, 0, len(q.Parts))
	for _, part := range q.Parts {
		parts = append(parts, part.String())
	}
	return strings.Join(parts, ".")
}

// HasParam reports whether any part of q is a parameter.
func (q *QualifiedName) HasParam() bool {
	for _, part := range q.Parts {
		if part.Param != nil {
			return true
		}
	}
	return false
}

func (n NamePart) String() string {
	if n.Param != nil {
		return n.Param.Marker()
	}
	return n.Name
}

// Marker returns the source form of p.
func (p *Param) Marker() string {
	switch {
	case p.Name != "":
		return "?" + p.Name
	case p.Position > 0:
		return "?" + strconv.Itoa(p.Position)
	}
	return "?"
}
