// Package jsonio writes query results as a JSON object holding the
// columns, the values, and the time the query took.
package jsonio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/vector"
)

type WriterOpts struct {
	// Columnar lists the values of each column together instead of
	// those of each row.
	Columnar bool
	Async    *sio.Async
}

type Writer struct {
	io.Closer
	writer *bufio.Writer
	schema vector.Schema
	opts   WriterOpts

	// json.Encoder rather than json.Marshal so HTML escaping can be
	// turned off.
	enc *json.Encoder
	buf bytes.Buffer

	started bool
	nrow    int
	columns [][]any
}

var _ sio.Finisher = (*Writer)(nil)

func NewWriter(w io.WriteCloser, schema vector.Schema, opts WriterOpts) *Writer {
	writer := &Writer{
		Closer: w,
		writer: bufio.NewWriter(w),
		schema: schema,
		opts:   opts,
	}
	writer.enc = json.NewEncoder(&writer.buf)
	writer.enc.SetEscapeHTML(false)
	if opts.Columnar {
		writer.columns = make([][]any, len(schema))
	}
	return writer
}

func (w *Writer) Write(page *vector.Page) error {
	if err := w.start(); err != nil {
		return err
	}
	if w.opts.Columnar {
		for k, b := range page.Blocks {
			for pos := range page.Len() {
				w.columns[k] = append(w.columns[k], sio.JSONCell(b, pos))
			}
		}
		return nil
	}
	row := make([]any, len(page.Blocks))
	for pos := range page.Len() {
		for k, b := range page.Blocks {
			row[k] = sio.JSONCell(b, pos)
		}
		if w.nrow > 0 {
			w.writer.WriteByte(',')
		}
		if err := w.encode(row); err != nil {
			return err
		}
		w.nrow++
	}
	return w.writer.Flush()
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	w.writer.WriteByte('{')
	if a := w.opts.Async; a != nil {
		w.writer.WriteString(`"id":`)
		if err := w.encode(a.ID); err != nil {
			return err
		}
		w.writer.WriteString(`,"is_running":`)
		if err := w.encode(a.IsRunning); err != nil {
			return err
		}
		w.writer.WriteByte(',')
	}
	w.writer.WriteString(`"columns":`)
	columns := w.schema
	if columns == nil {
		columns = vector.Schema{}
	}
	if err := w.encode(columns); err != nil {
		return err
	}
	w.writer.WriteString(`,"values":[`)
	return nil
}

// Finish ends the values and appends the time taken in milliseconds.
func (w *Writer) Finish(s sio.Summary) error {
	if err := w.start(); err != nil {
		return err
	}
	if w.opts.Columnar {
		for k, col := range w.columns {
			if k > 0 {
				w.writer.WriteByte(',')
			}
			if col == nil {
				col = []any{}
			}
			if err := w.encode(col); err != nil {
				return err
			}
		}
	}
	w.writer.WriteString(`],"took":`)
	if err := w.encode(s.Took.Milliseconds()); err != nil {
		return err
	}
	w.writer.WriteString("}\n")
	return w.writer.Flush()
}

func (w *Writer) encode(v any) error {
	w.buf.Reset()
	if err := w.enc.Encode(v); err != nil {
		return err
	}
	// Encode appends a newline.
	_, err := w.writer.Write(bytes.TrimSuffix(w.buf.Bytes(), []byte{'\n'}))
	return err
}
