package lexer

import (
	"strings"
)

type Kind int

const (
	Illegal Kind = iota
	EOF

	QuotedString
	Integer
	Decimal
	Identifier
	QuotedIdentifier
	SourceName
	Param
	NamedParam

	Pipe
	Comma
	Dot
	LParen
	RParen
	LBracket
	RBracket
	Assign
	Cast
	Eq
	CIEq
	Neq
	Lt
	Lte
	Gt
	Gte
	Plus
	Minus
	Asterisk
	Slash
	Percent

	keywordBegin
	// Command keywords are recognized only at the start of a pipe stage.
	Dissect
	Drop
	Enrich
	Eval
	Explain
	From
	Grok
	InlineStats
	Keep
	Limit
	Lookup
	Meta
	Metrics
	MvExpand
	Rename
	Row
	Show
	Sort
	Stats
	Where
	commandEnd
	// Expression keywords.
	And
	Asc
	By
	Desc
	False
	First
	In
	Is
	Last
	Like
	Not
	Null
	Nulls
	Or
	Rlike
	True
	// Metadata is recognized only in source lists.
	Metadata
	keywordEnd
)

var kindNames = map[Kind]string{
	Illegal:          "ILLEGAL",
	EOF:              "<EOF>",
	QuotedString:     "QUOTED_STRING",
	Integer:          "INTEGER_LITERAL",
	Decimal:          "DECIMAL_LITERAL",
	Identifier:       "UNQUOTED_IDENTIFIER",
	QuotedIdentifier: "QUOTED_IDENTIFIER",
	SourceName:       "UNQUOTED_SOURCE",
	Param:            "'?'",
	NamedParam:       "NAMED_OR_POSITIONAL_PARAM",
	Pipe:             "'|'",
	Comma:            "','",
	Dot:              "'.'",
	LParen:           "'('",
	RParen:           "')'",
	LBracket:         "'['",
	RBracket:         "']'",
	Assign:           "'='",
	Cast:             "'::'",
	Eq:               "'=='",
	CIEq:             "'=~'",
	Neq:              "'!='",
	Lt:               "'<'",
	Lte:              "'<='",
	Gt:               "'>'",
	Gte:              "'>='",
	Plus:             "'+'",
	Minus:            "'-'",
	Asterisk:         "'*'",
	Slash:            "'/'",
	Percent:          "'%'",
}

var keywords = map[string]Kind{
	"dissect":     Dissect,
	"drop":        Drop,
	"enrich":      Enrich,
	"eval":        Eval,
	"explain":     Explain,
	"from":        From,
	"grok":        Grok,
	"inlinestats": InlineStats,
	"keep":        Keep,
	"limit":       Limit,
	"lookup":      Lookup,
	"meta":        Meta,
	"metrics":     Metrics,
	"mv_expand":   MvExpand,
	"rename":      Rename,
	"row":         Row,
	"show":        Show,
	"sort":        Sort,
	"stats":       Stats,
	"where":       Where,
	"and":         And,
	"asc":         Asc,
	"by":          By,
	"desc":        Desc,
	"false":       False,
	"first":       First,
	"in":          In,
	"is":          Is,
	"last":        Last,
	"like":        Like,
	"not":         Not,
	"null":        Null,
	"nulls":       Nulls,
	"or":          Or,
	"rlike":       Rlike,
	"true":        True,
	"metadata":    Metadata,
}

var keywordNames = func() map[Kind]string {
	m := make(map[Kind]string)
	for name, k := range keywords {
		m[k] = name
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := keywordNames[k]; ok {
		return "'" + name + "'"
	}
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

func (k Kind) IsKeyword() bool {
	return k > keywordBegin && k < keywordEnd
}

func (k Kind) IsCommand() bool {
	return k > keywordBegin && k < commandEnd
}

// Token is a lexical token.  Pos and End are byte offsets into the source
// text with End exclusive.  Line and Column are 1-based.
type Token struct {
	Kind   Kind
	Text   string
	Pos    int
	End    int
	Line   int
	Column int
	modes  []Mode
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "<EOF>"
	}
	return t.Text
}

// Is reports whether t is an identifier whose text matches word, ignoring
// case.  Words such as AS, ON, WITH, INFO, and FUNCTIONS are matched this
// way rather than reserved.
func (t Token) Is(word string) bool {
	return t.Kind == Identifier && strings.EqualFold(t.Text, word)
}
