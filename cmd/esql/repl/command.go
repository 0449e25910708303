package repl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/cmd/esql/root"
	"github.com/brimdata/esql/compiler"
	"github.com/brimdata/esql/pkg/charm"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/runtime/vam/expr/agg"
	"github.com/brimdata/esql/runtime/vam/expr/function"
	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/sio/anyio"
	"github.com/peterh/liner"
	"golang.org/x/text/language"
)

var spec = &charm.Spec{
	Name:  "repl",
	Usage: "repl [options] [file ...]",
	Short: "run queries interactively",
	Long: `
The repl command reads queries from the terminal and runs them over the
indices read from the data files named on the command line.  A query ends
with a line ending in ";" or with an empty line.

Lines beginning with "." are directives:

  .format <fmt>   change the output format (default txt)
  .indices        list the indices
  .exit           leave the repl

History is kept in ~/.esql_history.
`,
	New: New,
}

func init() {
	root.Esql.Add(spec)
}

type Command struct {
	*root.Command
	format string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.StringVar(&c.format, "f", "txt", "initial output format")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	cat, err := root.LoadCatalog(ctx, args)
	if err != nil {
		return err
	}
	s := &session{catalog: cat, format: c.format, out: os.Stdout, errOut: os.Stderr}
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(s.complete)
	history := historyPath()
	if f, err := os.Open(history); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(history); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()
	var buf []string
	for {
		prompt := "esql> "
		if len(buf) > 0 {
			prompt = "   -> "
		}
		text, err := line.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			buf = nil
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		query, done := s.feed(&buf, text)
		if !done {
			continue
		}
		if query == "" {
			continue
		}
		line.AppendHistory(query)
		if s.run(ctx, query) {
			return nil
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".esql_history"
	}
	return filepath.Join(home, ".esql_history")
}

type session struct {
	catalog *catalog.Memory
	format  string
	out     io.Writer
	errOut  io.Writer
}

// feed adds a line of input to buf and returns the complete query or
// directive once one has been read.
func (s *session) feed(buf *[]string, text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(*buf) == 0 && strings.HasPrefix(trimmed, ".") {
		return trimmed, true
	}
	if trimmed == "" {
		query := strings.Join(*buf, "\n")
		*buf = nil
		return query, true
	}
	if strings.HasSuffix(trimmed, ";") {
		*buf = append(*buf, strings.TrimSuffix(trimmed, ";"))
		query := strings.Join(*buf, "\n")
		*buf = nil
		return query, true
	}
	*buf = append(*buf, text)
	return "", false
}

// run executes a query or directive and reports whether the session
// should end.
func (s *session) run(ctx context.Context, text string) bool {
	if strings.HasPrefix(text, ".") {
		return s.directive(strings.Fields(text))
	}
	if err := s.query(ctx, text); err != nil {
		fmt.Fprintln(s.errOut, err)
	}
	return false
}

func (s *session) directive(fields []string) bool {
	switch fields[0] {
	case ".exit", ".quit":
		return true
	case ".format":
		if len(fields) != 2 || !slices.Contains(anyio.Formats, fields[1]) {
			fmt.Fprintf(s.errOut, "usage: .format [%s]\n", strings.Join(anyio.Formats, "|"))
			return false
		}
		s.format = fields[1]
	case ".indices":
		for _, name := range s.catalog.Names() {
			fmt.Fprintln(s.out, name)
		}
	default:
		fmt.Fprintf(s.errOut, "unknown directive: %s\n", fields[0])
	}
	return false
}

func (s *session) query(ctx context.Context, text string) error {
	rctx := runtime.NewContext(ctx, language.AmericanEnglish)
	q, err := compiler.Compile(rctx, exec.NewEnvironment(s.catalog), &params.List{}, text)
	if err != nil {
		rctx.Cancel()
		return err
	}
	defer q.Close()
	w, err := anyio.NewWriter(sio.NopCloser(s.out), q.Schema(), anyio.WriterOpts{Format: s.format})
	if err != nil {
		return err
	}
	err = sio.Copy(w, q)
	if err == nil {
		err = sio.Finish(w, sio.Summary{})
	}
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	for _, msg := range q.Warnings() {
		fmt.Fprintln(s.errOut, msg)
	}
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}

var commands = []string{
	"DISSECT", "DROP", "ENRICH", "EVAL", "EXPLAIN", "FROM", "GROK", "INLINESTATS",
	"KEEP", "LIMIT", "LOOKUP", "META", "MV_EXPAND", "RENAME", "ROW", "SHOW",
	"SORT", "STATS", "WHERE",
}

// complete completes the last word of line with a command, function or
// index name.
func (s *session) complete(line string) []string {
	i := strings.LastIndexAny(line, " (|,") + 1
	prefix, word := line[:i], line[i:]
	if word == "" {
		return nil
	}
	candidates := slices.Clone(commands)
	for _, def := range function.Defs() {
		candidates = append(candidates, def.Name+"(")
	}
	for name := range agg.Synopses() {
		candidates = append(candidates, name+"(")
	}
	candidates = append(candidates, s.catalog.Names()...)
	var out []string
	upper := strings.ToUpper(word)
	for _, c := range candidates {
		if strings.HasPrefix(c, word) || strings.HasPrefix(c, upper) {
			out = append(out, prefix+c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
