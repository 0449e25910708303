// Package params decodes the "params" array of a query request into typed
// parameters.  Parameters are either all named or all unnamed, and each
// parameter's type is inferred from its JSON encoding unless given
// explicitly as a {"value", "type"} pair.
package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/brimdata/esql"
)

type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

type Param struct {
	Name  string
	Value esql.Value
	// IsField and IsPattern mark named parameters given as
	// {"identifier": ...} or {"pattern": ...}.  Their values are
	// keywords naming a field or a field pattern.
	IsField      bool
	IsPattern    bool
	ExplicitType bool
	// Loc is the position of the parameter in the request body.  It is
	// set on the first parameter and wherever a parameter's typing
	// differs from the previous parameter's.
	Loc *Location
}

type List struct {
	Params []Param
	Named  bool
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Params)
}

// Positional returns the n'th (1-based) parameter.
func (l *List) Positional(n int) (Param, bool) {
	if n < 1 || n > l.Len() {
		return Param{}, false
	}
	return l.Params[n-1], true
}

func (l *List) Lookup(name string) (Param, bool) {
	if l == nil {
		return Param{}, false
	}
	for _, p := range l.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Location returns the location recorded for the k'th parameter, or that of
// the nearest earlier parameter with a location.
func (l *List) Location(k int) *Location {
	for ; k >= 0; k-- {
		if loc := l.Params[k].Loc; loc != nil {
			return loc
		}
	}
	return nil
}

// Error is a parameter binding error.
type Error struct {
	Msg string
	Loc *Location
}

func (e *Error) Error() string {
	if e.Loc != nil {
		return fmt.Sprintf("[%s] %s", e.Loc, e.Msg)
	}
	return e.Msg
}

func errorf(loc *Location, format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...), Loc: loc}
}

// syntaxError wraps a JSON decoding error of the params array.
func syntaxError(err error, loc Location) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &Error{Msg: "Failed to parse params: " + err.Error(), Loc: &loc}
}

// Locator returns a function that maps a json.Decoder input offset in body
// to the line and column of the next value at or after that offset.
func Locator(body []byte) func(int64) Location {
	return func(off int64) Location {
		for int(off) < len(body) && strings.IndexByte(" \t\r\n,:", body[off]) >= 0 {
			off++
		}
		prefix := body[:min(int(off), len(body))]
		line := bytes.Count(prefix, []byte{'\n'}) + 1
		col := len(prefix) - bytes.LastIndexByte(prefix, '\n')
		return Location{Line: line, Column: col}
	}
}

// Parse decodes a JSON array of parameters held in data.
func Parse(data []byte) (*List, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return Decode(dec, Locator(data))
}

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// Decode reads a JSON array of parameters, or null, from dec.  locate maps
// decoder offsets to locations.
func Decode(dec *json.Decoder, locate func(int64) Location) (*List, error) {
	start := locate(dec.InputOffset())
	tok, err := dec.Token()
	if err != nil {
		return nil, syntaxError(err, start)
	}
	if tok == nil {
		return &List{}, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, errorf(&start, "[params] must be an array, found [%v]", tok)
	}
	var list List
	var named, unnamed bool
	for dec.More() {
		loc := locate(dec.InputOffset())
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, syntaxError(err, locate(dec.InputOffset()))
		}
		var p Param
		var prev *Param
		if n := len(list.Params); n > 0 {
			prev = &list.Params[n-1]
		}
		if len(raw) > 0 && raw[0] == '{' {
			p, err = decodeObject(raw, &loc)
			if err != nil {
				return nil, err
			}
			if p.Name != "" {
				named = true
			} else {
				unnamed = true
			}
			if prev == nil || !prev.ExplicitType {
				p.Loc = &loc
			}
		} else {
			val, err := inferScalar(raw, &loc)
			if err != nil {
				return nil, err
			}
			p = Param{Value: val}
			unnamed = true
			if prev == nil || prev.ExplicitType {
				p.Loc = &loc
			}
		}
		list.Params = append(list.Params, p)
	}
	if _, err := dec.Token(); err != nil {
		return nil, syntaxError(err, locate(dec.InputOffset()))
	}
	if named && unnamed {
		return nil, errorf(&start, "Params contain both named and unnamed parameters")
	}
	list.Named = named
	return &list, nil
}

type entry struct {
	key   string
	value json.RawMessage
}

// entries decodes a JSON object keeping its keys in order.
func entries(raw json.RawMessage) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, entry{tok.(string), value})
	}
	return out, nil
}

func decodeObject(raw json.RawMessage, loc *Location) (Param, error) {
	fields, err := entries(raw)
	if err != nil {
		return Param{}, syntaxError(err, *loc)
	}
	var value, typ json.RawMessage
	var others []entry
	for _, e := range fields {
		switch e.key {
		case "value":
			value = e.value
		case "type":
			typ = e.value
		default:
			others = append(others, e)
		}
	}
	if len(others) > 1 || (len(others) == 1 && (value != nil || typ != nil)) {
		return Param{}, errorf(loc, "Cannot parse more than one key:value pair as parameter, found [%s]", raw)
	}
	if len(others) == 1 {
		return decodeNamed(others[0], loc)
	}
	return decodeTyped(value, typ, loc)
}

func decodeNamed(e entry, loc *Location) (Param, error) {
	if digitsOnly.MatchString(e.key) {
		return Param{}, errorf(loc, "Integer %s is not a valid name for a parameter ", e.key)
	}
	p := Param{Name: e.key}
	if len(e.value) > 0 && e.value[0] == '{' {
		fields, err := entries(e.value)
		if err != nil {
			return Param{}, syntaxError(err, *loc)
		}
		if len(fields) != 1 || (fields[0].key != "identifier" && fields[0].key != "pattern") {
			return Param{}, errorf(loc, "[%s] is not a valid param attribute, a valid attribute is any of [identifier, pattern]", e.value)
		}
		var s string
		if err := json.Unmarshal(fields[0].value, &s); err != nil {
			return Param{}, errorf(loc, "[%s] is not a valid value for %s parameter, a valid value for %s parameter is a string", fields[0].value, fields[0].key, fields[0].key)
		}
		p.Value = esql.NewKeyword(s)
		p.IsField = fields[0].key == "identifier"
		p.IsPattern = !p.IsField
		return p, nil
	}
	val, err := inferScalar(e.value, loc)
	if err != nil {
		return Param{}, err
	}
	p.Value = val
	return p, nil
}

func decodeTyped(value, typ json.RawMessage, loc *Location) (Param, error) {
	var typeName string
	if typ != nil {
		if err := json.Unmarshal(typ, &typeName); err != nil {
			return Param{}, errorf(loc, "[type] must be a string, found [%s]", typ)
		}
	}
	isNull := value == nil || string(value) == "null"
	if (typ != nil && !strings.EqualFold(typeName, "null") && isNull) || (value != nil && typ == nil) {
		return Param{}, errorf(loc, "Required a [value] and [type] pair")
	}
	if typ == nil {
		return Param{Value: esql.Null, ExplicitType: true}, nil
	}
	dt, ok := esql.ParseDataType(typeName)
	if !ok {
		return Param{}, errorf(loc, "Invalid parameter data type [%s]", typeName)
	}
	if isNull {
		return Param{Value: esql.Value{Type: dt}, ExplicitType: true}, nil
	}
	v, err := ConvertJSON(value, dt)
	if err != nil {
		return Param{}, errorf(loc, "Cannot convert [%s] to [%s]", value, dt)
	}
	return Param{Value: v, ExplicitType: true}, nil
}

func inferScalar(raw json.RawMessage, loc *Location) (esql.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil && err != io.EOF {
		return esql.Value{}, syntaxError(err, *loc)
	}
	switch v := tok.(type) {
	case nil:
		return esql.Null, nil
	case string:
		return esql.NewKeyword(v), nil
	case bool:
		return esql.NewBoolean(v), nil
	case json.Number:
		return inferNumber(v), nil
	case json.Delim:
		name := "START_OBJECT"
		if v == '[' {
			name = "START_ARRAY"
		}
		return esql.Value{}, errorf(loc, "Failed to parse object: unexpected token [%s] found", name)
	}
	return esql.Value{}, errorf(loc, "unexpected parameter value [%s]", raw)
}
