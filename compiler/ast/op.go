package ast

// Command is a source or processing command of a query pipeline.
type Command interface {
	Node
	commandNode()
}

// Query is a source command followed by the processing commands
// connected to it by pipes.
type Query struct {
	Kind     string    `json:"kind"`
	Source   Command   `json:"source"`
	Commands []Command `json:"commands"`
	Loc      `json:"loc"`
}

type (
	// Field is an expression with an optional name as in "x = a + 1".
	Field struct {
		Kind string         `json:"kind"`
		Name *QualifiedName `json:"name,omitempty"`
		Expr Expr           `json:"expr"`
		Loc  `json:"loc"`
	}
	Source struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
		Loc  `json:"loc"`
	}
	// Order is a SORT key.  Direction is "asc", "desc", or empty.
	// Nulls is "first", "last", or empty.
	Order struct {
		Kind      string `json:"kind"`
		Expr      Expr   `json:"expr"`
		Direction string `json:"direction,omitempty"`
		Nulls     string `json:"nulls,omitempty"`
		Loc       `json:"loc"`
	}
	RenameClause struct {
		Kind string       `json:"kind"`
		Old  *NamePattern `json:"old"`
		New  *NamePattern `json:"new"`
		Loc  `json:"loc"`
	}
	EnrichClause struct {
		Kind    string       `json:"kind"`
		NewName *NamePattern `json:"new_name,omitempty"`
		Name    *NamePattern `json:"name"`
		Loc     `json:"loc"`
	}
	CommandOption struct {
		Kind  string `json:"kind"`
		Name  string `json:"name"`
		Value Expr   `json:"value"`
		Loc   `json:"loc"`
	}
)

type (
	From struct {
		Kind     string    `json:"kind"`
		Sources  []*Source `json:"sources"`
		Metadata []*Source `json:"metadata,omitempty"`
		Loc      `json:"loc"`
	}
	Row struct {
		Kind   string   `json:"kind"`
		Fields []*Field `json:"fields"`
		Loc    `json:"loc"`
	}
	ShowInfo struct {
		Kind string `json:"kind"`
		Loc  `json:"loc"`
	}
	MetaFunctions struct {
		Kind string `json:"kind"`
		Loc  `json:"loc"`
	}
	Explain struct {
		Kind  string `json:"kind"`
		Query *Query `json:"query"`
		Loc   `json:"loc"`
	}
	Metrics struct {
		Kind       string    `json:"kind"`
		Sources    []*Source `json:"sources"`
		Aggregates []*Field  `json:"aggregates,omitempty"`
		Groupings  []*Field  `json:"groupings,omitempty"`
		Loc        `json:"loc"`
	}
	Where struct {
		Kind string `json:"kind"`
		Expr Expr   `json:"expr"`
		Loc  `json:"loc"`
	}
	Eval struct {
		Kind   string   `json:"kind"`
		Fields []*Field `json:"fields"`
		Loc    `json:"loc"`
	}
	Stats struct {
		Kind       string   `json:"kind"`
		Aggregates []*Field `json:"aggregates,omitempty"`
		Groupings  []*Field `json:"groupings,omitempty"`
		Loc        `json:"loc"`
	}
	InlineStats struct {
		Kind       string   `json:"kind"`
		Aggregates []*Field `json:"aggregates"`
		Groupings  []*Field `json:"groupings,omitempty"`
		Loc        `json:"loc"`
	}
	Sort struct {
		Kind   string   `json:"kind"`
		Orders []*Order `json:"orders"`
		Loc    `json:"loc"`
	}
	Limit struct {
		Kind  string `json:"kind"`
		Count Expr   `json:"count"`
		Loc   `json:"loc"`
	}
	Keep struct {
		Kind     string         `json:"kind"`
		Patterns []*NamePattern `json:"patterns"`
		Loc      `json:"loc"`
	}
	Drop struct {
		Kind     string         `json:"kind"`
		Patterns []*NamePattern `json:"patterns"`
		Loc      `json:"loc"`
	}
	Rename struct {
		Kind    string          `json:"kind"`
		Clauses []*RenameClause `json:"clauses"`
		Loc     `json:"loc"`
	}
	Dissect struct {
		Kind    string           `json:"kind"`
		Expr    Expr             `json:"expr"`
		Pattern string           `json:"pattern"`
		Options []*CommandOption `json:"options,omitempty"`
		Loc     `json:"loc"`
	}
	Grok struct {
		Kind    string `json:"kind"`
		Expr    Expr   `json:"expr"`
		Pattern string `json:"pattern"`
		Loc     `json:"loc"`
	}
	Enrich struct {
		Kind   string          `json:"kind"`
		Policy string          `json:"policy"`
		On     *NamePattern    `json:"on,omitempty"`
		With   []*EnrichClause `json:"with,omitempty"`
		Loc    `json:"loc"`
	}
	MvExpand struct {
		Kind  string         `json:"kind"`
		Field *QualifiedName `json:"field"`
		Loc   `json:"loc"`
	}
	Lookup struct {
		Kind  string         `json:"kind"`
		Table string         `json:"table"`
		On    []*NamePattern `json:"on"`
		Loc   `json:"loc"`
	}
)

func (*From) commandNode()          {}
func (*Row) commandNode()           {}
func (*ShowInfo) commandNode()      {}
func (*MetaFunctions) commandNode() {}
func (*Explain) commandNode()       {}
func (*Metrics) commandNode()       {}
func (*Where) commandNode()         {}
func (*Eval) commandNode()          {}
func (*Stats) commandNode()         {}
func (*InlineStats) commandNode()   {}
func (*Sort) commandNode()          {}
func (*Limit) commandNode()         {}
func (*Keep) commandNode()          {}
func (*Drop) commandNode()          {}
func (*Rename) commandNode()        {}
func (*Dissect) commandNode()       {}
func (*Grok) commandNode()          {}
func (*Enrich) commandNode()        {}
func (*MvExpand) commandNode()      {}
func (*Lookup) commandNode()        {}

// IsSource reports whether c may begin a query.
func IsSource(c Command) bool {
	switch c.(type) {
	case *From, *Row, *ShowInfo, *MetaFunctions, *Explain, *Metrics:
		return true
	}
	return false
}
