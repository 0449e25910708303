package parse

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/brimdata/esql/cmd/esql/root"
	"github.com/brimdata/esql/compiler"
	"github.com/brimdata/esql/compiler/sfmt"
	"github.com/brimdata/esql/pkg/charm"
)

var spec = &charm.Spec{
	Name:  "parse",
	Usage: "parse [options] query",
	Short: "parse a query and print its syntax tree",
	Long: `
The parse command parses a query and prints its syntax tree as JSON.
With -C, the tree is printed instead as canonical query text in which
every command begins a line and binary expressions are parenthesized.

Query text may also be read from files with -I as with the query command.
`,
	New: New,
}

func init() {
	root.Esql.Add(spec)
}

type Command struct {
	*root.Command
	canon    bool
	includes []string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.canon, "C", false, "print canonical query text instead of JSON")
	f.Func("I", "source file containing query text (may be used multiple times)", func(s string) error {
		c.includes = append(c.includes, s)
		return nil
	})
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 && len(c.includes) == 0 {
		return charm.NeedHelp
	}
	ast, err := compiler.Parse(strings.Join(args, " "), c.includes...)
	if err != nil {
		return err
	}
	if c.canon {
		fmt.Println(sfmt.Query(ast.Query()))
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	if err := enc.Encode(ast.Query()); err != nil {
		return errors.New("could not encode syntax tree: " + err.Error())
	}
	return nil
}
