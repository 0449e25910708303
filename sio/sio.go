// Package sio defines the writers that render query results.
package sio

import (
	"io"
	"path/filepath"
	"time"

	"github.com/brimdata/esql/vector"
)

func Extension(format string) string {
	switch format {
	case "arrow":
		return ".arrow"
	case "csv":
		return ".csv"
	case "json":
		return ".json"
	case "tsv":
		return ".tsv"
	case "txt":
		return ".txt"
	case "yaml":
		return ".yaml"
	default:
		return ""
	}
}

func FormatFromPath(path string) string {
	switch filepath.Ext(path) {
	case ".arrow", ".arrows":
		return "arrow"
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".tsv":
		return "tsv"
	case ".text", ".txt":
		return "txt"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// NopCloser returns a WriteCloser with a no-op Close method wrapping
// the provided Writer w.
func NopCloser(w io.Writer) io.WriteCloser {
	return nopCloser{w}
}

// Writer wraps the Write method.  Every page shares the schema the writer
// was created with.
//
// Implementations must not retain page.
type Writer interface {
	Write(page *vector.Page) error
}

type WriteCloser interface {
	Writer
	io.Closer
}

// Summary describes a finished query.
type Summary struct {
	Took time.Duration
}

// Finisher is implemented by writers whose output ends with a summary of
// the query.  Finish is called once after the last Write and before Close.
type Finisher interface {
	Finish(Summary) error
}

// Finish calls w.Finish if w is a Finisher.
func Finish(w Writer, s Summary) error {
	if f, ok := w.(Finisher); ok {
		return f.Finish(s)
	}
	return nil
}

// Copy writes the pages of src to dst a la io.Copy.
func Copy(dst Writer, src vector.Puller) error {
	for {
		page, err := src.Pull(false)
		if page == nil || err != nil {
			return err
		}
		if err := dst.Write(page); err != nil {
			src.Pull(true)
			return err
		}
	}
}
