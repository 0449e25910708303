// Package yamlio writes query results as a YAML document with the same
// fields as the JSON format.
package yamlio

import (
	"io"

	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/vector"
	"gopkg.in/yaml.v3"
)

type WriterOpts struct {
	Columnar bool
	Async    *sio.Async
}

type header struct {
	ID        *string  `yaml:"id,omitempty"`
	IsRunning *bool    `yaml:"is_running,omitempty"`
	Columns   []column `yaml:"columns"`
}

type column struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type Writer struct {
	writer  io.WriteCloser
	schema  vector.Schema
	opts    WriterOpts
	started bool
	nrow    int
	columns [][]any
}

var _ sio.Finisher = (*Writer)(nil)

func NewWriter(w io.WriteCloser, schema vector.Schema, opts WriterOpts) *Writer {
	writer := &Writer{writer: w, schema: schema, opts: opts}
	if opts.Columnar {
		writer.columns = make([][]any, len(schema))
	}
	return writer
}

func (w *Writer) Write(page *vector.Page) error {
	if err := w.start(); err != nil {
		return err
	}
	for pos := range page.Len() {
		row := make([]any, len(page.Blocks))
		for k, b := range page.Blocks {
			row[k] = sio.JSONCell(b, pos)
			if w.opts.Columnar {
				w.columns[k] = append(w.columns[k], row[k])
			}
		}
		if w.opts.Columnar {
			continue
		}
		if w.nrow == 0 {
			if _, err := io.WriteString(w.writer, "values:\n"); err != nil {
				return err
			}
		}
		// A one-element sequence renders as an item of the values list.
		if err := w.marshal([]any{row}); err != nil {
			return err
		}
		w.nrow++
	}
	return nil
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	h := header{Columns: []column{}}
	if a := w.opts.Async; a != nil {
		h.ID, h.IsRunning = &a.ID, &a.IsRunning
	}
	for _, c := range w.schema {
		h.Columns = append(h.Columns, column{Name: c.Name, Type: c.Type.String()})
	}
	return w.marshal(h)
}

func (w *Writer) Finish(s sio.Summary) error {
	if err := w.start(); err != nil {
		return err
	}
	var tail struct {
		Values [][]any `yaml:"values,omitempty"`
		Took   int64   `yaml:"took"`
	}
	tail.Took = s.Took.Milliseconds()
	if w.opts.Columnar {
		tail.Values = w.columns
		for k := range tail.Values {
			if tail.Values[k] == nil {
				tail.Values[k] = []any{}
			}
		}
	}
	if !w.opts.Columnar && w.nrow == 0 || w.opts.Columnar && len(w.columns) == 0 {
		if _, err := io.WriteString(w.writer, "values: []\n"); err != nil {
			return err
		}
	}
	return w.marshal(tail)
}

func (w *Writer) marshal(v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.writer.Write(b)
	return err
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
