// Package queryio turns the pages of an executing query into the chunks of
// a response body.
package queryio

import (
	"fmt"
	"unicode/utf8"

	"github.com/brimdata/esql/api"
	"github.com/brimdata/esql/sio/anyio"
)

// FormatError reports a response format or format option that cannot be
// honored.  It is always returned before the query starts.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return e.Msg
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// Options carries the format related parts of a query request.  Format,
// Delimiter and Header come from URL parameters, Accept and ContentType
// from request headers and Columnar from the body.
type Options struct {
	Format      string
	Accept      string
	ContentType string
	Delimiter   string
	Header      string
	Columnar    bool
}

// Negotiate picks the output format of a query response and validates the
// options that only some formats accept.  The format URL parameter wins
// over the Accept header which wins over the Content-Type header.  JSON is
// the default.
func Negotiate(o Options) (anyio.WriterOpts, error) {
	format, err := negotiateFormat(o)
	if err != nil {
		return anyio.WriterOpts{}, err
	}
	opts := anyio.WriterOpts{Format: format}
	if o.Delimiter != "" {
		if format != "csv" {
			return anyio.WriterOpts{}, formatErrorf("Invalid use of [delimiter] argument: only allowed with [csv] format, found [%s]", format)
		}
		r, n := utf8.DecodeRuneInString(o.Delimiter)
		if n != len(o.Delimiter) || r == '"' || r == '\n' || r == '\r' || r == utf8.RuneError {
			return anyio.WriterOpts{}, formatErrorf("illegal [delimiter] value [%s]; expected a single character other than double quote, newline or carriage return", o.Delimiter)
		}
		opts.CSV.Delim = r
	}
	switch o.Header {
	case "", "present":
	case "absent":
		if format != "csv" && format != "tsv" {
			return anyio.WriterOpts{}, formatErrorf("Invalid use of [header] argument: only allowed with [csv, tsv] formats, found [%s]", format)
		}
		opts.CSV.NoHeader = true
	default:
		return anyio.WriterOpts{}, formatErrorf("Invalid value for [header] argument: [%s]; expected [absent] or [present]", o.Header)
	}
	if o.Columnar {
		if format != "json" && format != "yaml" {
			return anyio.WriterOpts{}, formatErrorf("Invalid use of [columnar] argument: cannot be used in combination with [txt, csv, tsv, arrow] formats")
		}
		opts.Columnar = true
	}
	return opts, nil
}

func negotiateFormat(o Options) (string, error) {
	if o.Format != "" {
		for _, f := range anyio.Formats {
			if f == o.Format {
				return f, nil
			}
		}
		return "", formatErrorf("invalid format [%s]", o.Format)
	}
	for _, mt := range []string{o.Accept, o.ContentType} {
		format, err := api.MediaTypeToFormat(mt, "")
		if err != nil {
			if mt == o.ContentType {
				// Content-Type describes the request body so an unsupported
				// one does not constrain the response.
				break
			}
			return "", &FormatError{Msg: err.Error()}
		}
		if format != "" {
			return format, nil
		}
	}
	return "json", nil
}
