package parser

import (
	"errors"

	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/compiler/lexer"
	"github.com/brimdata/esql/compiler/srcfiles"
)

type AST struct {
	query *ast.Query
	files *srcfiles.List
}

func (a *AST) Query() *ast.Query {
	return a.query
}

func (a *AST) Files() *srcfiles.List {
	return a.files
}

// ParseQuery parses a query text and an optional set of include files and
// tracks include file names and line numbers for error reporting.
func ParseQuery(query string, filenames ...string) (*AST, error) {
	files, err := srcfiles.Concat(filenames, query)
	if err != nil {
		return nil, err
	}
	q, err := ParseTokens(files, lexer.Tokenize(files.Text))
	if err != nil {
		return nil, err
	}
	return &AST{q, files}, nil
}

// ParseTokens parses a token sequence lexed from files.Text.  Syntax
// errors are added to files and returned together as a
// srcfiles.ErrorList.
func ParseTokens(files *srcfiles.List, toks []lexer.Token) (*ast.Query, error) {
	if len(toks) == 0 || toks[0].Kind == lexer.EOF {
		files.AddError("query cannot be empty", 0, -1)
		return nil, files.Error()
	}
	p := newParser(files, toks)
	q := p.query(false)
	if err := files.Error(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseExpr parses a standalone boolean expression.
func ParseExpr(text string) (ast.Expr, error) {
	files := srcfiles.Plain(text)
	p := newParser(files, lexer.NewInMode(text, lexer.ModeExpression).All())
	var e ast.Expr
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(bailout); !ok {
					panic(r)
				}
			}
		}()
		e = p.booleanExpr(0)
		if !p.at(lexer.EOF) {
			p.mismatch(lexer.EOF)
		}
	}()
	if err := files.Error(); err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.New("empty expression")
	}
	return e, nil
}
