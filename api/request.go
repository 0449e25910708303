package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/vector"
)

const (
	DefaultWaitForCompletion = time.Second
	DefaultKeepAlive         = 5 * 24 * time.Hour
)

// QueryRequest is the body of a query request.
type QueryRequest struct {
	Query    string
	Params   *params.List
	Columnar bool
	// Filter and Pragma are accepted and passed through uninterpreted.
	Filter  json.RawMessage
	Pragma  json.RawMessage
	Locale  string
	Profile bool
	Tables  map[string]*vector.Page

	WaitForCompletionTimeout time.Duration
	KeepAlive                time.Duration
	KeepOnCompletion         bool
}

// ParseQueryRequest decodes a query request body.  Fields of async
// requests are unknown fields of other requests.
func ParseQueryRequest(body []byte, async bool) (*QueryRequest, error) {
	d := &decoder{dec: json.NewDecoder(bytes.NewReader(body)), locate: params.Locator(body)}
	d.dec.UseNumber()
	req := &QueryRequest{
		WaitForCompletionTimeout: DefaultWaitForCompletion,
		KeepAlive:                DefaultKeepAlive,
	}
	if err := d.expectDelim('{'); err != nil {
		return nil, err
	}
	var hasQuery bool
	for d.dec.More() {
		loc := d.location()
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.syntaxError(err)
		}
		key, _ := tok.(string)
		switch key {
		case "query":
			hasQuery = true
			err = d.decode(&req.Query)
		case "params":
			req.Params, err = params.Decode(d.dec, d.locate)
		case "columnar":
			err = d.decode(&req.Columnar)
		case "filter":
			err = d.decode(&req.Filter)
		case "pragma":
			err = d.decode(&req.Pragma)
		case "locale":
			err = d.decode(&req.Locale)
		case "profile":
			err = d.decode(&req.Profile)
		case "tables":
			req.Tables, err = d.tables()
		case "wait_for_completion_timeout", "keep_alive", "keep_on_completion":
			if !async {
				return nil, d.errorf(loc, "[esql_query] unknown field [%s]", key)
			}
			switch key {
			case "wait_for_completion_timeout":
				req.WaitForCompletionTimeout, err = d.duration(key)
			case "keep_alive":
				req.KeepAlive, err = d.duration(key)
			default:
				err = d.decode(&req.KeepOnCompletion)
			}
		default:
			return nil, d.errorf(loc, "[esql_query] unknown field [%s]", key)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := d.expectDelim('}'); err != nil {
		return nil, err
	}
	if !hasQuery {
		return nil, &params.Error{Msg: "[esql_query] Required [query]"}
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, &params.Error{Msg: "[query] is required"}
	}
	return req, nil
}

type decoder struct {
	dec    *json.Decoder
	locate func(int64) params.Location
}

func (d *decoder) location() params.Location {
	return d.locate(d.dec.InputOffset())
}

func (d *decoder) errorf(loc params.Location, format string, args ...any) error {
	return &params.Error{Msg: fmt.Sprintf(format, args...), Loc: &loc}
}

func (d *decoder) syntaxError(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	loc := d.location()
	return &params.Error{Msg: err.Error(), Loc: &loc}
}

func (d *decoder) decode(v any) error {
	loc := d.location()
	if err := d.dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return d.errorf(loc, "[%s] failed to parse field, expected %s but found %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return d.syntaxError(err)
	}
	return nil
}

func (d *decoder) expectDelim(delim json.Delim) error {
	loc := d.location()
	tok, err := d.dec.Token()
	if err != nil {
		return d.syntaxError(err)
	}
	if tok != delim {
		return d.errorf(loc, "expected %q but found [%v]", delim.String(), tok)
	}
	return nil
}

func (d *decoder) duration(key string) (time.Duration, error) {
	loc := d.location()
	var s string
	if err := d.decode(&s); err != nil {
		return 0, err
	}
	dur, err := ParseTimeValue(s)
	if err != nil {
		return 0, d.errorf(loc, "failed to parse setting [%s] with value [%s] as a time value: %s", key, s, err)
	}
	return dur, nil
}

var timeUnits = []struct {
	suffix string
	unit   time.Duration
}{
	// Longer suffixes come first so "ms" is not read as "s".
	{"nanos", time.Nanosecond},
	{"micros", time.Microsecond},
	{"ms", time.Millisecond},
	{"s", time.Second},
	{"m", time.Minute},
	{"h", time.Hour},
	{"d", 24 * time.Hour},
}

// ParseTimeValue parses a duration such as "30s" or "5d".  "-1" means no
// expiry and parses as zero.
func ParseTimeValue(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "-1" || s == "0" {
		return 0, nil
	}
	for _, u := range timeUnits {
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
			if err != nil || n < 0 {
				break
			}
			return time.Duration(n) * u.unit, nil
		}
	}
	return 0, errors.New("unit is missing or unrecognized")
}

// tables decodes named tables, each an object mapping column names to a
// single-entry object from type name to the column's values:
//
//	{"colors": {"name": {"keyword": ["red", "blue"]}, "n": {"integer": [1, 2]}}}
func (d *decoder) tables() (map[string]*vector.Page, error) {
	if err := d.expectDelim('{'); err != nil {
		return nil, err
	}
	tables := make(map[string]*vector.Page)
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.syntaxError(err)
		}
		name := tok.(string)
		page, err := d.table(name)
		if err != nil {
			return nil, err
		}
		tables[name] = page
	}
	return tables, d.expectDelim('}')
}

func (d *decoder) table(name string) (*vector.Page, error) {
	if err := d.expectDelim('{'); err != nil {
		return nil, err
	}
	var schema vector.Schema
	var blocks []vector.Block
	length := -1
	for d.dec.More() {
		loc := d.location()
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.syntaxError(err)
		}
		column := tok.(string)
		var typed map[string][]json.RawMessage
		if err := d.decode(&typed); err != nil {
			return nil, err
		}
		if len(typed) != 1 {
			return nil, d.errorf(loc, "column [%s] of table [%s] must have exactly one type", column, name)
		}
		for typeName, vals := range typed {
			typ, ok := esql.ParseDataType(typeName)
			if !ok || typ == esql.TypeUnsupported || typ == esql.TypeNull {
				return nil, d.errorf(loc, "unsupported type [%s] for column [%s] of table [%s]", typeName, column, name)
			}
			if length >= 0 && len(vals) != length {
				return nil, d.errorf(loc, "column [%s] of table [%s] has %d values but expected %d", column, name, len(vals), length)
			}
			length = len(vals)
			b, err := buildColumn(typ, vals)
			if err != nil {
				return nil, d.errorf(loc, "column [%s] of table [%s]: %s", column, name, err)
			}
			schema = append(schema, vector.Column{Name: column, Type: typ})
			blocks = append(blocks, b)
		}
	}
	if err := d.expectDelim('}'); err != nil {
		return nil, err
	}
	return vector.NewPage(schema, blocks, max(length, 0)), nil
}

func buildColumn(typ esql.DataType, vals []json.RawMessage) (vector.Block, error) {
	b := vector.NewBuilderFor(typ, len(vals))
	for _, raw := range vals {
		raw = bytes.TrimSpace(raw)
		switch {
		case bytes.Equal(raw, []byte("null")):
			b.AppendNull()
		case len(raw) > 0 && raw[0] == '[':
			var elems []json.RawMessage
			if err := json.Unmarshal(raw, &elems); err != nil {
				return nil, err
			}
			b.BeginPositionEntry()
			for _, e := range elems {
				v, err := params.ConvertJSON(e, typ)
				if err != nil {
					return nil, err
				}
				b.AppendAny(v.Any)
			}
			b.EndPositionEntry()
		default:
			v, err := params.ConvertJSON(raw, typ)
			if err != nil {
				return nil, err
			}
			b.AppendAny(v.Any)
		}
	}
	return b.Build(), nil
}
