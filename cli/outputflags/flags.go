package outputflags

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/sio/anyio"
	"github.com/brimdata/esql/vector"
	"golang.org/x/term"
)

type Flags struct {
	anyio.WriterOpts
	// DefaultFormat is used when -f is absent.  If it is empty, the format
	// is txt when writing to a terminal and json otherwise.
	DefaultFormat string
	delim         string
	noHeader      bool
	outputFile    string
	forceFormat   bool
}

func (f *Flags) Options() anyio.WriterOpts {
	return f.WriterOpts
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&f.Format, "f", "", fmt.Sprintf("format for output data [%s]", strings.Join(anyio.Formats, ",")))
	fs.BoolVar(&f.Columnar, "columnar", false, "list the values of each column together (json and yaml only)")
	fs.StringVar(&f.delim, "delim", "", "field delimiter for csv output")
	fs.BoolVar(&f.noHeader, "noheader", false, "omit the header line of csv and tsv output")
	fs.StringVar(&f.outputFile, "o", "", "write data to output file")
	fs.BoolVar(&f.forceFormat, "B", false, "allow arrow output to be sent to a terminal")
}

func (f *Flags) Init() error {
	if f.outputFile == "-" {
		f.outputFile = ""
	}
	if f.Format == "" {
		f.Format = f.DefaultFormat
	}
	if f.Format == "" {
		if f.outputFile != "" {
			f.Format = sio.FormatFromPath(f.outputFile)
		}
		if f.Format == "" {
			f.Format = "json"
			if f.outputFile == "" && term.IsTerminal(int(os.Stdout.Fd())) {
				f.Format = "txt"
			}
		}
	}
	if f.Format == "arrow" && f.outputFile == "" && !f.forceFormat && term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("writing arrow to a terminal; use -B to force")
	}
	if f.delim != "" {
		if f.Format != "csv" {
			return errors.New("-delim requires csv output")
		}
		r, n := utf8.DecodeRuneInString(f.delim)
		if n != len(f.delim) || r == '"' || r == '\n' || r == '\r' {
			return fmt.Errorf("illegal -delim value %q", f.delim)
		}
		f.CSV.Delim = r
	}
	if f.noHeader {
		if f.Format != "csv" && f.Format != "tsv" {
			return errors.New("-noheader requires csv or tsv output")
		}
		f.CSV.NoHeader = true
	}
	if f.Columnar && f.Format != "json" && f.Format != "yaml" {
		return fmt.Errorf("-columnar cannot be used with %s output", f.Format)
	}
	return nil
}

func (f *Flags) FileName() string {
	return f.outputFile
}

// Open returns a writer for pages of schema to the output file or stdout.
func (f *Flags) Open(schema vector.Schema) (sio.WriteCloser, error) {
	out := sio.NopCloser(os.Stdout)
	if f.outputFile != "" {
		file, err := os.Create(f.outputFile)
		if err != nil {
			return nil, err
		}
		out = file
	}
	w, err := anyio.NewWriter(out, schema, f.WriterOpts)
	if err != nil {
		out.Close()
		return nil, err
	}
	return &closer{WriteCloser: w, file: out}, nil
}

// closer closes the file under a writer after the writer itself.
type closer struct {
	sio.WriteCloser
	file interface{ Close() error }
}

func (c *closer) Finish(s sio.Summary) error {
	return sio.Finish(c.WriteCloser, s)
}

func (c *closer) Close() error {
	err := c.WriteCloser.Close()
	if cerr := c.file.Close(); err == nil {
		err = cerr
	}
	return err
}
