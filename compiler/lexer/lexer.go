// Package lexer turns query text into tokens.  The lexer is modal: the
// same characters lex differently at the start of a pipe stage, inside an
// expression, and in a list of source names.  Every token records the mode
// stack in effect at its start so lexing can be resumed from any token.
package lexer

import (
	"strings"
	"unicode/utf8"
)

type Mode uint8

const (
	ModeCommand Mode = iota
	ModeExpression
	// ModeSource lexes comma-separated index names after FROM.
	ModeSource
	// ModeMetrics is ModeSource for METRICS, which switches to
	// ModeExpression after the last index name.
	ModeMetrics
	// ModeName lexes a single name after ENRICH or LOOKUP.
	ModeName
	// ModeExplain expects the bracketed query of EXPLAIN.
	ModeExplain
)

type Lexer struct {
	src    string
	pos    int
	line   int
	column int
	modes  []Mode
}

func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, column: 1, modes: []Mode{ModeCommand}}
}

// NewInMode returns a lexer that starts in mode m rather than at the start
// of a pipe stage.
func NewInMode(src string, m Mode) *Lexer {
	l := New(src)
	l.modes[0] = m
	return l
}

// Resume returns a lexer positioned at the start of tok, which must have
// been produced by a lexer over src.
func Resume(src string, tok Token) *Lexer {
	return &Lexer{
		src:    src,
		pos:    tok.Pos,
		line:   tok.Line,
		column: tok.Column,
		modes:  append([]Mode(nil), tok.modes...),
	}
}

// Tokenize lexes all of src.  The last token is always EOF.
func Tokenize(src string) []Token {
	return New(src).All()
}

// All returns the remaining tokens through EOF.
func (l *Lexer) All() []Token {
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

func (l *Lexer) mode() Mode {
	return l.modes[len(l.modes)-1]
}

func (l *Lexer) setMode(m Mode) {
	l.modes[len(l.modes)-1] = m
}

func (l *Lexer) push(m Mode) {
	l.modes = append(l.modes, m)
}

func (l *Lexer) pop() {
	if len(l.modes) > 1 {
		l.modes = l.modes[:len(l.modes)-1]
	}
}

func (l *Lexer) peek(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

func (l *Lexer) advance(n int) {
	for range n {
		if l.pos >= len(l.src) {
			return
		}
		if l.src[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.advance(1)
		case c == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance(1)
			}
		case c == '/' && l.peek(1) == '*':
			l.skipBlockComment()
		default:
			return
		}
	}
}

// Block comments nest.  An unterminated comment runs to end of input.
func (l *Lexer) skipBlockComment() {
	depth := 0
	for l.pos < len(l.src) {
		switch {
		case l.src[l.pos] == '/' && l.peek(1) == '*':
			depth++
			l.advance(2)
		case l.src[l.pos] == '*' && l.peek(1) == '/':
			depth--
			l.advance(2)
			if depth == 0 {
				return
			}
		default:
			l.advance(1)
		}
	}
}

// Next returns the next token.  Once the input is exhausted, every call
// returns an EOF token.
func (l *Lexer) Next() Token {
	l.skipSpaceAndComments()
	start := Token{
		Pos:    l.pos,
		Line:   l.line,
		Column: l.column,
		modes:  append([]Mode(nil), l.modes...),
	}
	if l.pos >= len(l.src) {
		start.Kind = EOF
		start.End = l.pos
		return start
	}
	var kind Kind
	switch l.mode() {
	case ModeCommand:
		kind = l.lexCommand()
	case ModeSource, ModeMetrics, ModeName:
		kind = l.lexSource()
	case ModeExplain:
		kind = l.lexExplain()
	default:
		kind = l.lexExpression()
	}
	start.Kind = kind
	start.End = l.pos
	start.Text = l.src[start.Pos:l.pos]
	return start
}

func (l *Lexer) lexCommand() Kind {
	c := l.src[l.pos]
	if !isLetter(c) && c != '_' {
		// Not a command; let the expression rules classify it so the
		// parser can report a meaningful error.
		l.setMode(ModeExpression)
		return l.lexExpression()
	}
	word := l.scanWord()
	kind, ok := keywords[strings.ToLower(word)]
	if !ok || !kind.IsCommand() {
		l.setMode(ModeExpression)
		if ok {
			return kind
		}
		return Identifier
	}
	switch kind {
	case From:
		l.setMode(ModeSource)
	case Metrics:
		l.setMode(ModeMetrics)
	case Enrich, Lookup:
		l.setMode(ModeName)
	case Explain:
		l.setMode(ModeExplain)
	default:
		l.setMode(ModeExpression)
	}
	return kind
}

func (l *Lexer) lexExplain() Kind {
	switch l.src[l.pos] {
	case '[':
		l.advance(1)
		l.push(ModeCommand)
		return LBracket
	case ']':
		l.advance(1)
		l.pop()
		return RBracket
	case '|':
		l.advance(1)
		l.setMode(ModeCommand)
		return Pipe
	}
	return l.lexExpression()
}

func isSourceChar(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', '|', '[', ']', '"', '=', '(', ')', 0:
		return false
	}
	return true
}

func (l *Lexer) lexSource() Kind {
	mode := l.mode()
	switch c := l.src[l.pos]; c {
	case '|':
		l.advance(1)
		l.setMode(ModeCommand)
		return Pipe
	case ',':
		l.advance(1)
		return Comma
	case '[':
		l.advance(1)
		l.push(mode)
		return LBracket
	case ']':
		l.advance(1)
		l.pop()
		return RBracket
	case '"':
		kind := l.scanString()
		l.afterSource(mode)
		return kind
	}
	if !isSourceChar(l.src[l.pos]) {
		l.advance(1)
		return Illegal
	}
	start := l.pos
	for l.pos < len(l.src) && isSourceChar(l.src[l.pos]) {
		if l.src[l.pos] == '/' && (l.peek(1) == '/' || l.peek(1) == '*') {
			break
		}
		l.advance(1)
	}
	if mode == ModeSource && strings.EqualFold(l.src[start:l.pos], "metadata") {
		return Metadata
	}
	l.afterSource(mode)
	return SourceName
}

func (l *Lexer) afterSource(mode Mode) {
	switch mode {
	case ModeName:
		l.setMode(ModeExpression)
	case ModeMetrics:
		save := *l
		l.skipSpaceAndComments()
		next := l.peek(0)
		*l = save
		if next != ',' {
			l.setMode(ModeExpression)
		}
	}
}

func (l *Lexer) lexExpression() Kind {
	c := l.src[l.pos]
	switch {
	case isDigit(c) || (c == '.' && isDigit(l.peek(1))):
		return l.scanNumber()
	case isLetter(c) || c == '_' || c == '@':
		word := l.scanWord()
		if kind, ok := keywords[strings.ToLower(word)]; ok && !kind.IsCommand() && kind != Metadata {
			return kind
		}
		return Identifier
	case c == '"':
		return l.scanString()
	case c == '`':
		return l.scanQuotedIdentifier()
	case c == '?':
		l.advance(1)
		if isWordChar(l.peek(0)) {
			l.scanWord()
			return NamedParam
		}
		return Param
	}
	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	switch two {
	case "::":
		l.advance(2)
		return Cast
	case "==":
		l.advance(2)
		return Eq
	case "=~":
		l.advance(2)
		return CIEq
	case "!=":
		l.advance(2)
		return Neq
	case "<=":
		l.advance(2)
		return Lte
	case ">=":
		l.advance(2)
		return Gte
	}
	l.advance(1)
	switch c {
	case '|':
		l.setMode(ModeCommand)
		return Pipe
	case ',':
		return Comma
	case '.':
		return Dot
	case '(':
		return LParen
	case ')':
		return RParen
	case '[':
		l.push(ModeExpression)
		return LBracket
	case ']':
		l.pop()
		return RBracket
	case '=':
		return Assign
	case '<':
		return Lt
	case '>':
		return Gt
	case '+':
		return Plus
	case '-':
		return Minus
	case '*':
		return Asterisk
	case '/':
		return Slash
	case '%':
		return Percent
	}
	// Consume the rest of a multi-byte rune so the illegal token
	// holds a whole character.
	if c >= utf8.RuneSelf {
		_, size := utf8.DecodeRuneInString(l.src[l.pos-1:])
		l.advance(size - 1)
	}
	return Illegal
}

func (l *Lexer) scanWord() string {
	start := l.pos
	for l.pos < len(l.src) && (isWordChar(l.src[l.pos]) || l.src[l.pos] == '@') {
		l.advance(1)
	}
	return l.src[start:l.pos]
}

func (l *Lexer) scanDigits() {
	for isDigit(l.peek(0)) {
		l.advance(1)
	}
}

func (l *Lexer) scanNumber() Kind {
	kind := Integer
	l.scanDigits()
	if l.peek(0) == '.' && l.peek(1) != '.' {
		kind = Decimal
		l.advance(1)
		l.scanDigits()
	}
	if c := l.peek(0); c == 'e' || c == 'E' {
		n := 1
		if s := l.peek(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(l.peek(n)) {
			kind = Decimal
			l.advance(n)
			l.scanDigits()
		}
	}
	return kind
}

// scanString scans a double-quoted string or a triple-quoted string.  An
// unterminated string is illegal.
func (l *Lexer) scanString() Kind {
	if strings.HasPrefix(l.src[l.pos:], `"""`) {
		end := strings.Index(l.src[l.pos+3:], `"""`)
		if end < 0 {
			l.advance(len(l.src) - l.pos)
			return Illegal
		}
		// Extra quotes before the closing delimiter belong to the string.
		end += 3
		for l.pos+end+3 < len(l.src) && l.src[l.pos+end+3] == '"' {
			end++
		}
		l.advance(end + 3)
		return QuotedString
	}
	l.advance(1)
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.advance(2)
		case '"':
			l.advance(1)
			return QuotedString
		case '\n', '\r':
			return Illegal
		default:
			l.advance(1)
		}
	}
	return Illegal
}

func (l *Lexer) scanQuotedIdentifier() Kind {
	l.advance(1)
	for l.pos < len(l.src) {
		if l.src[l.pos] == '`' {
			if l.peek(1) == '`' {
				l.advance(2)
				continue
			}
			l.advance(1)
			return QuotedIdentifier
		}
		l.advance(1)
	}
	return Illegal
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
