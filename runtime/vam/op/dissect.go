package op

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/vam/expr"
	"github.com/brimdata/esql/vector"
)

var dissectKeyRE = regexp.MustCompile(`%\{([^}]*)\}`)

type dissectKey struct {
	name   string
	skip   bool
	append bool
	order  int
	pad    bool
	// delim is the literal text following the key.
	delim string
}

// Dissector splits a string into named parts using a pattern of %{key}
// references separated by literal delimiters.  %{?name} and %{} match
// text without extracting it, %{+name} appends to a prior key, and a
// trailing "->" skips repeated delimiters.
type Dissector struct {
	pattern   string
	separator string
	prefix    string
	keys      []dissectKey
	names     []string
}

func NewDissector(pattern, separator string) (*Dissector, error) {
	d := &Dissector{pattern: pattern, separator: separator}
	matches := dissectKeyRE.FindAllStringSubmatchIndex(pattern, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("Invalid pattern for dissect: [%s]", pattern)
	}
	d.prefix = pattern[:matches[0][0]]
	for k, m := range matches {
		end := len(pattern)
		if k+1 < len(matches) {
			end = matches[k+1][0]
		}
		key, err := parseDissectKey(pattern[m[2]:m[3]])
		if err != nil {
			return nil, err
		}
		key.delim = pattern[m[1]:end]
		d.keys = append(d.keys, key)
		if !key.skip && !slices.Contains(d.names, key.name) {
			d.names = append(d.names, key.name)
		}
	}
	if len(d.names) == 0 {
		return nil, fmt.Errorf("Invalid pattern for dissect: [%s]", pattern)
	}
	return d, nil
}

func parseDissectKey(s string) (dissectKey, error) {
	var key dissectKey
	if rest, ok := strings.CutSuffix(s, "->"); ok {
		key.pad = true
		s = rest
	}
	switch {
	case strings.HasPrefix(s, "*"), strings.HasPrefix(s, "&"):
		return key, fmt.Errorf("Reference keys not supported in dissect patterns: [%%{%s}]", s)
	case strings.HasPrefix(s, "?"):
		key.skip = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		key.append = true
		s = s[1:]
		if name, order, ok := strings.Cut(s, "/"); ok {
			n, err := strconv.Atoi(order)
			if err != nil {
				return key, fmt.Errorf("Invalid dissect append order: [%s]", order)
			}
			s, key.order = name, n
		}
	}
	if s == "" {
		key.skip = true
	}
	key.name = s
	return key, nil
}

// Names returns the extracted keys in the order they first appear.
func (d *Dissector) Names() []string {
	return d.names
}

// Parse returns the extracted values indexed like Names, or false if s
// does not match the pattern.
func (d *Dissector) Parse(s string) ([]string, bool) {
	rest, ok := strings.CutPrefix(s, d.prefix)
	if !ok {
		return nil, false
	}
	type part struct {
		value string
		order int
	}
	parts := make(map[string][]part)
	for k, key := range d.keys {
		var value string
		switch {
		case key.delim == "" && k == len(d.keys)-1:
			value, rest = rest, ""
		case key.delim == "":
		default:
			i := strings.Index(rest, key.delim)
			if i < 0 {
				return nil, false
			}
			value, rest = rest[:i], rest[i+len(key.delim):]
			if key.pad {
				for strings.HasPrefix(rest, key.delim) {
					rest = rest[len(key.delim):]
				}
			}
		}
		if key.skip {
			continue
		}
		if !key.append {
			parts[key.name] = nil
		}
		parts[key.name] = append(parts[key.name], part{value, key.order})
	}
	out := make([]string, 0, len(d.names))
	for _, name := range d.names {
		p := parts[name]
		slices.SortStableFunc(p, func(a, b part) int { return a.order - b.order })
		vals := make([]string, 0, len(p))
		for _, v := range p {
			vals = append(vals, v.value)
		}
		out = append(out, strings.Join(vals, d.separator))
	}
	return out, true
}

// Dissect adds a keyword column for each key of its dissector.  Rows whose
// input does not match get nulls.
type Dissect struct {
	parent    vector.Puller
	expr      expr.Evaluator
	dissector *Dissector
	warner    *runtime.Warner
}

var _ vector.Puller = (*Dissect)(nil)

func NewDissect(parent vector.Puller, e expr.Evaluator, d *Dissector, w *runtime.Warner) *Dissect {
	return &Dissect{parent: parent, expr: e, dissector: d, warner: w}
}

func (d *Dissect) Pull(done bool) (*vector.Page, error) {
	page, err := d.parent.Pull(done)
	if page == nil || err != nil {
		return nil, err
	}
	in := d.expr.Eval(page)
	names := d.dissector.Names()
	builders := make([]*vector.Builder[string], 0, len(names))
	for range names {
		builders = append(builders, vector.NewBuilder[string](esql.TypeKeyword, page.Len()))
	}
	for pos := range page.Len() {
		v, ok := expr.Single(in, pos, d.warner)
		var vals []string
		if ok {
			vals, ok = d.dissector.Parse(v.(string))
		}
		for k, b := range builders {
			if ok {
				b.Append(vals[k])
			} else {
				b.AppendNull()
			}
		}
	}
	for k, name := range names {
		page = page.With(vector.Column{Name: name, Type: esql.TypeKeyword}, builders[k].Build())
	}
	return page, nil
}
