package parser

import (
	"fmt"
	"strings"

	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/compiler/lexer"
	"github.com/brimdata/esql/compiler/srcfiles"
)

// bailout is the panic value used to unwind a failed rule.  It is
// recovered at command boundaries, where the parser resynchronizes, and by
// speculate, which rolls back the token position.
type bailout struct{}

type parser struct {
	files       *srcfiles.List
	toks        []lexer.Token
	pos         int
	speculating int
}

func newParser(files *srcfiles.List, toks []lexer.Token) *parser {
	p := &parser{files: files}
	// Illegal tokens are reported here and dropped so parsing can
	// carry on over the rest of the input.
	for _, tok := range toks {
		if tok.Kind == lexer.Illegal {
			files.AddError(fmt.Sprintf("token recognition error at: '%s'", tok.Text), tok.Pos, tok.End-1)
			continue
		}
		p.toks = append(p.toks, tok)
	}
	if len(p.toks) == 0 || p.toks[len(p.toks)-1].Kind != lexer.EOF {
		end := len(files.Text)
		p.toks = append(p.toks, lexer.Token{Kind: lexer.EOF, Pos: end, End: end})
	}
	return p
}

func (p *parser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) peekN(n int) lexer.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) at(kinds ...lexer.Kind) bool {
	k := p.peek().Kind
	for _, kind := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (p *parser) next() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(kind lexer.Kind) bool {
	if p.at(kind) {
		p.next()
		return true
	}
	return false
}

// lastEnd returns the end offset of the most recently consumed token.
func (p *parser) lastEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].End
}

func (p *parser) loc(first int) ast.Loc {
	return ast.NewLoc(first, p.lastEnd())
}

func (p *parser) expect(kind lexer.Kind) lexer.Token {
	if !p.at(kind) {
		p.mismatch(kind)
	}
	return p.next()
}

// expectWord consumes an identifier matching word, ignoring case.
func (p *parser) expectWord(word string) lexer.Token {
	if !p.peek().Is(word) {
		p.fail(fmt.Sprintf("mismatched input '%s' expecting '%s'", p.peek(), word), p.peek())
	}
	return p.next()
}

func (p *parser) mismatch(kinds ...lexer.Kind) {
	p.fail(fmt.Sprintf("mismatched input '%s' expecting %s", p.peek(), expecting(kinds)), p.peek())
}

func expecting(kinds []lexer.Kind) string {
	if len(kinds) == 1 {
		return kinds[0].String()
	}
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// fail records a syntax error at tok, unless speculating, and unwinds the
// current rule.
func (p *parser) fail(msg string, tok lexer.Token) {
	if p.speculating == 0 {
		end := tok.End - 1
		if end < tok.Pos {
			end = -1
		}
		p.files.AddError(msg, tok.Pos, end)
	}
	panic(bailout{})
}

// speculate runs f and reports whether it matched.  On failure the token
// position is restored and no errors are recorded.
func (p *parser) speculate(f func()) (ok bool) {
	save := p.pos
	p.speculating++
	defer func() {
		p.speculating--
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout {
				panic(r)
			}
			p.pos = save
			ok = false
		}
	}()
	f()
	return true
}

// guard runs a command rule.  If the rule fails, the parser skips ahead to
// the next pipe (or to the bracket closing an EXPLAIN) and guard returns nil.
func (p *parser) guard(f func() ast.Command) (c ast.Command) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBailout := r.(bailout); !isBailout || p.speculating > 0 {
				panic(r)
			}
			p.resync()
			c = nil
		}
	}()
	return f()
}

func (p *parser) resync() {
	depth := 0
	for {
		switch p.peek().Kind {
		case lexer.EOF:
			return
		case lexer.LBracket, lexer.LParen:
			depth++
		case lexer.RBracket, lexer.RParen:
			if depth == 0 {
				return
			}
			depth--
		case lexer.Pipe:
			if depth == 0 {
				return
			}
		}
		p.next()
	}
}

// query parses a pipeline that ends at EOF or, when nested inside
// EXPLAIN, at the closing bracket.
func (p *parser) query(nested bool) *ast.Query {
	first := p.peek().Pos
	q := &ast.Query{Kind: "Query"}
	q.Source = p.guard(func() ast.Command {
		c := p.sourceCommand()
		p.endOfCommand(nested)
		return c
	})
	for p.accept(lexer.Pipe) {
		c := p.guard(func() ast.Command {
			c := p.processingCommand()
			p.endOfCommand(nested)
			return c
		})
		if c != nil {
			q.Commands = append(q.Commands, c)
		}
	}
	if !nested && !p.at(lexer.EOF) {
		tok := p.peek()
		p.files.AddError(fmt.Sprintf("extraneous input '%s' expecting <EOF>", tok), tok.Pos, tok.End-1)
	}
	q.Loc = p.loc(first)
	return q
}

func (p *parser) endOfCommand(nested bool) {
	switch {
	case p.at(lexer.Pipe, lexer.EOF):
	case nested && p.at(lexer.RBracket):
	default:
		p.mismatch(lexer.EOF, lexer.Pipe)
	}
}
