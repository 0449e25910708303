// Package compiler turns query text into a running exec.Query.
package compiler

import (
	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/compiler/parser"
	"github.com/brimdata/esql/compiler/rungen"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/exec"
)

func Parse(query string, filenames ...string) (*parser.AST, error) {
	return parser.ParseQuery(query, filenames...)
}

// CompileWithAST binds params to a parsed query and builds its pipeline.
// Errors locating a problem in the query text are a srcfiles.ErrorList.
func CompileWithAST(rctx *runtime.Context, ast *parser.AST, env *exec.Environment, params *params.List) (*exec.Query, error) {
	b := rungen.NewBuilder(rctx, env, ast.Files(), params)
	puller, schema, err := b.Build(ast.Query())
	if err != nil {
		return nil, err
	}
	return exec.NewQuery(rctx, puller, schema), nil
}

func Compile(rctx *runtime.Context, env *exec.Environment, params *params.List, query string, filenames ...string) (*exec.Query, error) {
	ast, err := Parse(query, filenames...)
	if err != nil {
		return nil, err
	}
	return CompileWithAST(rctx, ast, env, params)
}
