package csvio

import (
	"encoding/csv"
	"io"

	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/vector"
)

type Writer struct {
	writer  io.WriteCloser
	encoder *csv.Writer
	schema  vector.Schema
	header  bool
	strings []string
}

type WriterOpts struct {
	Delim    rune
	NoHeader bool
}

var _ sio.Finisher = (*Writer)(nil)

func NewWriter(w io.WriteCloser, schema vector.Schema, opts WriterOpts) *Writer {
	encoder := csv.NewWriter(w)
	if opts.Delim != 0 {
		encoder.Comma = opts.Delim
	}
	return &Writer{
		writer:  w,
		encoder: encoder,
		schema:  schema,
		header:  !opts.NoHeader,
	}
}

func (w *Writer) Close() error {
	w.encoder.Flush()
	return w.writer.Close()
}

func (w *Writer) Flush() error {
	w.encoder.Flush()
	return w.encoder.Error()
}

func (w *Writer) Write(page *vector.Page) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	for pos := range page.Len() {
		w.strings = w.strings[:0]
		for _, b := range page.Blocks {
			w.strings = append(w.strings, sio.TextCell(b, pos, ""))
		}
		if err := w.encoder.Write(w.strings); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (w *Writer) writeHeader() error {
	if !w.header {
		return nil
	}
	w.header = false
	return w.encoder.Write(w.schema.Names())
}

// Finish writes the header of an empty result.
func (w *Writer) Finish(sio.Summary) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.Flush()
}
