// Package textio writes query results as a plain text table.  Column
// widths are fixed by the header and the first page so that later pages
// stream without buffering.
package textio

import (
	"bufio"
	"io"
	"strings"

	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/vector"
	"golang.org/x/text/width"
)

const MinColumnWidth = 15

type Writer struct {
	writer io.WriteCloser
	buf    *bufio.Writer
	schema vector.Schema
	widths []int
	cells  []string
}

var _ sio.Finisher = (*Writer)(nil)

func NewWriter(w io.WriteCloser, schema vector.Schema) *Writer {
	return &Writer{
		writer: w,
		buf:    bufio.NewWriter(w),
		schema: schema,
	}
}

func (w *Writer) Write(page *vector.Page) error {
	if w.widths == nil {
		w.writeHeader(page)
	}
	for pos := range page.Len() {
		w.cells = w.cells[:0]
		for _, b := range page.Blocks {
			w.cells = append(w.cells, sio.TextCell(b, pos, "null"))
		}
		for k, s := range w.cells {
			if k > 0 {
				w.buf.WriteByte('|')
			}
			w.buf.WriteString(s)
			pad(w.buf, w.widths[k]-displayWidth(s))
		}
		w.buf.WriteByte('\n')
	}
	return w.buf.Flush()
}

// writeHeader sizes each column to fit its name and the values of page,
// which may be nil.
func (w *Writer) writeHeader(page *vector.Page) {
	w.widths = make([]int, len(w.schema))
	for k, c := range w.schema {
		w.widths[k] = max(MinColumnWidth, displayWidth(c.Name))
		if page == nil {
			continue
		}
		for pos := range page.Len() {
			w.widths[k] = max(w.widths[k], displayWidth(sio.TextCell(page.Blocks[k], pos, "null")))
		}
	}
	for k, c := range w.schema {
		if k > 0 {
			w.buf.WriteByte('|')
		}
		n := w.widths[k] - displayWidth(c.Name)
		pad(w.buf, n/2)
		w.buf.WriteString(c.Name)
		pad(w.buf, n-n/2)
	}
	w.buf.WriteByte('\n')
	for k, n := range w.widths {
		if k > 0 {
			w.buf.WriteByte('+')
		}
		w.buf.WriteString(strings.Repeat("-", n))
	}
	w.buf.WriteByte('\n')
}

func (w *Writer) Finish(sio.Summary) error {
	if w.widths == nil {
		w.writeHeader(nil)
	}
	return w.buf.Flush()
}

func (w *Writer) Close() error {
	err := w.buf.Flush()
	if closeErr := w.writer.Close(); err == nil {
		err = closeErr
	}
	return err
}

func pad(w *bufio.Writer, n int) {
	for range n {
		w.WriteByte(' ')
	}
}

// displayWidth counts East Asian wide and fullwidth characters as two
// columns.
func displayWidth(s string) int {
	var n int
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
