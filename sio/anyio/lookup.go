// Package anyio creates the writer for an output format by name.
package anyio

import (
	"fmt"
	"io"

	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/sio/arrowio"
	"github.com/brimdata/esql/sio/csvio"
	"github.com/brimdata/esql/sio/jsonio"
	"github.com/brimdata/esql/sio/textio"
	"github.com/brimdata/esql/sio/yamlio"
	"github.com/brimdata/esql/vector"
)

// Formats lists the output formats NewWriter accepts.
var Formats = []string{"arrow", "csv", "json", "tsv", "txt", "yaml"}

type WriterOpts struct {
	Format   string
	Columnar bool
	Async    *sio.Async
	CSV      csvio.WriterOpts
}

func NewWriter(w io.WriteCloser, schema vector.Schema, opts WriterOpts) (sio.WriteCloser, error) {
	switch opts.Format {
	case "arrow":
		return arrowio.NewWriter(w, schema), nil
	case "csv":
		return csvio.NewWriter(w, schema, opts.CSV), nil
	case "json", "":
		return jsonio.NewWriter(w, schema, jsonio.WriterOpts{Columnar: opts.Columnar, Async: opts.Async}), nil
	case "tsv":
		opts.CSV.Delim = '\t'
		return csvio.NewWriter(w, schema, opts.CSV), nil
	case "txt":
		return textio.NewWriter(w, schema), nil
	case "yaml":
		return yamlio.NewWriter(w, schema, yamlio.WriterOpts{Columnar: opts.Columnar, Async: opts.Async}), nil
	case "null":
		return &nullWriter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", opts.Format)
	}
}

type nullWriter struct{}

func (*nullWriter) Write(*vector.Page) error {
	return nil
}

func (*nullWriter) Close() error {
	return nil
}
