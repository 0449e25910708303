package root

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/cli"
	"github.com/brimdata/esql/pkg/charm"
	"github.com/brimdata/esql/pkg/storage"
)

var Esql = &charm.Spec{
	Name:  "esql",
	Usage: "esql [options] <command> [options] [arguments...]",
	Short: "run piped queries over data files or serve them over HTTP",
	Long: `
The "esql" command runs queries written in a piped query language
in which a source command such as FROM or ROW is followed by
processing commands separated by "|", e.g.,

  esql query -c 'FROM logs | WHERE status >= 500 | STATS n = COUNT(*) BY host' logs.ndjson

Data files are read as indices named after the file with its extension
removed.  NDJSON, JSON, CSV, and TSV files are supported, and files may
be local, read from standard input ("-"), or stored in S3 (s3://bucket/key).

The "serve" command exposes the same queries over HTTP and the "repl"
command runs them interactively.
`,
	New: New,
}

type Command struct {
	cli.Flags
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	c.SetFlags(f)
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) == 0 {
		return charm.NeedHelp
	}
	return fmt.Errorf("unknown command: %s", args[0])
}

// LoadCatalog returns a catalog holding an index for each data file in
// paths.  A path may be a local file, an s3:// URL, or "-" for standard
// input, and a path ending in a slash loads every data file it lists.
func LoadCatalog(ctx context.Context, paths []string) (*catalog.Memory, error) {
	engine := storage.NewRemoteEngine()
	cat := catalog.NewMemory()
	for _, path := range paths {
		if path == "-" {
			path = "stdio:stdin"
		}
		u, err := storage.ParseURI(path)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(path, "/") {
			err = cat.LoadDir(ctx, engine, u)
		} else {
			err = cat.LoadURI(ctx, engine, u)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return cat, nil
}
