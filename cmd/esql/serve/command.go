package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brimdata/esql/api/queryio"
	"github.com/brimdata/esql/cli"
	"github.com/brimdata/esql/cli/logflags"
	"github.com/brimdata/esql/cmd/esql/root"
	"github.com/brimdata/esql/pkg/charm"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/service"
	"go.uber.org/zap"
)

var spec = &charm.Spec{
	Name:  "serve",
	Usage: "serve [options] [file ...]",
	Short: "serve queries over HTTP",
	Long: `
The serve command listens for HTTP requests and runs the queries they
carry over the indices read from the data files named on the command line.

Queries are posted to /_query as a JSON body of the form

  {"query": "FROM logs | LIMIT 10", "params": [...]}

and results are streamed back in the format chosen by the "format" URL
parameter or the Accept header (json, yaml, csv, tsv, txt, or arrow).
Long running queries may be posted to /_query/async and their results
fetched later from /_query/async/<id>.  Prometheus metrics are served
at /metrics.
`,
	New: New,
}

func init() {
	root.Esql.Add(spec)
}

type Command struct {
	*root.Command
	conf        service.Config
	logFlags    logflags.Flags
	listenAddr  string
	portFile    string
	chunkSize   cli.Bytes
	corsOrigins string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	c.chunkSize.Bytes = queryio.DefaultChunkSize
	c.logFlags.SetFlags(f)
	f.StringVar(&c.listenAddr, "l", "localhost:9200", "[addr]:port to listen on")
	f.StringVar(&c.portFile, "portfile", "", "write listen port to file")
	f.Var(&c.chunkSize, "chunksize", "size of the response chunks written as results stream")
	f.IntVar(&c.conf.DefaultLimit, "limit", exec.DefaultLimit, "rows returned by a query without a LIMIT")
	f.IntVar(&c.conf.MaxLimit, "maxlimit", exec.MaxLimit, "largest LIMIT a query may use")
	f.IntVar(&c.conf.AsyncCacheSize, "async.cachesize", service.DefaultAsyncCacheSize, "number of async query results kept")
	f.StringVar(&c.corsOrigins, "cors.origins", "*", "comma-separated origins allowed by CORS")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init(&c.logFlags)
	if err != nil {
		return err
	}
	defer cleanup()
	logger, err := c.logFlags.Open()
	if err != nil {
		return err
	}
	defer logger.Sync()
	cat, err := root.LoadCatalog(ctx, args)
	if err != nil {
		return err
	}
	c.conf.Catalog = cat
	c.conf.Logger = logger
	c.conf.ChunkSize = int(c.chunkSize.Bytes)
	c.conf.CORSOrigins = strings.Split(c.corsOrigins, ",")
	core, err := service.NewCore(ctx, c.conf)
	if err != nil {
		return err
	}
	defer core.Shutdown()
	ln, err := net.Listen("tcp", c.listenAddr)
	if err != nil {
		return err
	}
	if err := c.writePortFile(ln.Addr()); err != nil {
		ln.Close()
		return err
	}
	srv := &http.Server{
		Handler:     core,
		ReadTimeout: time.Minute,
	}
	logger.Info("Listening",
		zap.Stringer("addr", ln.Addr()),
		zap.Strings("indices", cat.Names()),
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *Command) writePortFile(addr net.Addr) error {
	if c.portFile == "" {
		return nil
	}
	port := addr.(*net.TCPAddr).Port
	return os.WriteFile(c.portFile, []byte(fmt.Sprintf("%d", port)), 0644)
}
