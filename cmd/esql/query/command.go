package query

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brimdata/esql/cli/outputflags"
	"github.com/brimdata/esql/cli/queryflags"
	"github.com/brimdata/esql/cmd/esql/root"
	"github.com/brimdata/esql/compiler"
	"github.com/brimdata/esql/pkg/charm"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/sio"
)

var spec = &charm.Spec{
	Name:  "query",
	Usage: "query [options] -c query [file ...]",
	Short: "run a query over data files",
	Long: `
The query command runs the query given with -c over the indices read from
the data files named on the command line.  Each file becomes an index
named after the file with its extension removed, so the file
"web-logs.ndjson" is read with "FROM web-logs".  The file "-" is standard
input and is read as NDJSON into the index "stdin".

Query text may also be read from files with -I.  These are concatenated
in order, followed by the -c text, and errors are reported relative to the
file in which they occur.

Warnings raised while evaluating the query are written to stderr unless
-q is given.  When stdout is a terminal the default output format is a
text table, otherwise it is JSON.
`,
	New: New,
}

func init() {
	root.Esql.Add(spec)
}

type Command struct {
	*root.Command
	outputFlags outputflags.Flags
	queryFlags  queryflags.Flags
	quiet       bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	c.outputFlags.SetFlags(f)
	c.queryFlags.SetFlags(f)
	f.BoolVar(&c.quiet, "q", false, "don't display warnings")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init(&c.outputFlags, &c.queryFlags)
	if err != nil {
		return err
	}
	defer cleanup()
	if c.queryFlags.Query == "" && len(c.queryFlags.Includes) == 0 {
		return charm.NeedHelp
	}
	cat, err := root.LoadCatalog(ctx, args)
	if err != nil {
		return err
	}
	env := c.queryFlags.Environment(exec.NewEnvironment(cat))
	rctx := runtime.NewContext(ctx, c.queryFlags.Locale)
	start := time.Now()
	q, err := compiler.Compile(rctx, env, c.queryFlags.Params, c.queryFlags.Query, c.queryFlags.Includes...)
	if err != nil {
		rctx.Cancel()
		return err
	}
	defer q.Close()
	w, err := c.outputFlags.Open(q.Schema())
	if err != nil {
		return err
	}
	err = sio.Copy(w, q)
	took := time.Since(start)
	if err == nil {
		err = sio.Finish(w, sio.Summary{Took: took})
	}
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if !c.quiet {
		for _, msg := range q.Warnings() {
			fmt.Fprintln(os.Stderr, msg)
		}
	}
	c.queryFlags.PrintStats(q.Progress(), took)
	if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
		return errors.New("interrupted")
	}
	return err
}
