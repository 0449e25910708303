// Package rungen builds the operator pipeline of a parsed query.  Column
// references and function calls are resolved and typed against the schema
// flowing between commands, and query parameters are substituted as the
// tree is walked.
package rungen

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/compiler/ast"
	"github.com/brimdata/esql/compiler/srcfiles"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/runtime/vam/op"
	"github.com/brimdata/esql/vector"
)

type Builder struct {
	rctx   *runtime.Context
	env    *exec.Environment
	files  *srcfiles.List
	params *params.List

	style paramStyle
	anon  int
}

func NewBuilder(rctx *runtime.Context, env *exec.Environment, files *srcfiles.List, params *params.List) *Builder {
	return &Builder{
		rctx:   rctx,
		env:    env,
		files:  files,
		params: params,
	}
}

// Build returns a puller running q along with the schema of the pages it
// produces.  Errors are returned as a srcfiles.ErrorList.
func (b *Builder) Build(q *ast.Query) (vector.Puller, vector.Schema, error) {
	parent, schema, err := b.compileSource(q.Source)
	if err != nil {
		return nil, nil, err
	}
	limited := false
	for k, cmd := range q.Commands {
		var next ast.Command
		if k+1 < len(q.Commands) {
			next = q.Commands[k+1]
		}
		parent, schema, err = b.compileCommand(parent, schema, cmd, next)
		if err != nil {
			return nil, nil, err
		}
		switch cmd.(type) {
		case *ast.Limit:
			limited = true
		case *ast.Stats, *ast.MvExpand, *ast.Lookup:
			limited = false
		}
	}
	if !limited && b.env.DefaultLimit > 0 {
		parent = op.NewLimit(parent, b.env.DefaultLimit)
	}
	return parent, schema, nil
}

func (b *Builder) errorf(n ast.Node, format string, args ...any) error {
	end := n.End() - 1
	if end < n.Pos() {
		end = -1
	}
	b.files.AddError(fmt.Sprintf(format, args...), n.Pos(), end)
	return b.files.Error()
}

// text returns the source text of n.
func (b *Builder) text(n ast.Node) string {
	pos, end := n.Pos(), n.End()
	if pos < 0 || end > len(b.files.Text) || pos > end {
		return ""
	}
	return b.files.Text[pos:end]
}

// warner returns a Warner that reports evaluation failures of n.
func (b *Builder) warner(n ast.Node) *runtime.Warner {
	pos := b.files.FileOf(n.Pos()).Position(n.Pos())
	return runtime.NewWarner(b.rctx, pos.Line, pos.Column, b.text(n))
}

// suggest returns the candidates within a small edit distance of name.
func suggest(name string, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(c)); d <= max(1, len(name)/4) {
			out = append(out, c)
		}
	}
	return out
}

func didYouMean(msg string, suggestions []string) string {
	switch len(suggestions) {
	case 0:
		return msg
	case 1:
		return fmt.Sprintf("%s, did you mean [%s]?", msg, suggestions[0])
	}
	return fmt.Sprintf("%s, did you mean any of [%s]?", msg, strings.Join(suggestions, ", "))
}

// withColumn mirrors vector.Page.With: c replaces any column of the same
// name and is placed last.
func withColumn(schema vector.Schema, c vector.Column) vector.Schema {
	out := make(vector.Schema, 0, len(schema)+1)
	for _, col := range schema {
		if col.Name != c.Name {
			out = append(out, col)
		}
	}
	return append(out, c)
}
