package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/pkg/storage"
	"github.com/brimdata/esql/vector"
)

// DefaultPageSize is the number of rows per page of a loaded index.
const DefaultPageSize = 1024

// Memory is a Catalog of indices held in memory.  It is safe for
// concurrent use.
type Memory struct {
	mu       sync.RWMutex
	indices  map[string]*Index
	PageSize int
}

var _ Catalog = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		indices:  make(map[string]*Index),
		PageSize: DefaultPageSize,
	}
}

func (m *Memory) Add(index *Index) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indices[index.Name] = index
}

func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.indices))
	for name := range m.indices {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *Memory) Resolve(pattern string) ([]string, error) {
	var names []string
	for _, name := range m.Names() {
		if Match(pattern, name) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *Memory) Index(name string) (*Index, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	index, ok := m.indices[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchIndex, name)
	}
	return index, nil
}

// LoadURI adds the index stored at u, read through engine.  The index is
// named after the file with its extension removed, and the extension
// selects the format.  Standard input is read as NDJSON into the index
// "stdin".
func (m *Memory) LoadURI(ctx context.Context, engine storage.Engine, u *storage.URI) error {
	r, err := engine.Get(ctx, u)
	if err != nil {
		return err
	}
	defer r.Close()
	if storage.Scheme(u.Scheme) == storage.StdioScheme {
		return m.Load("stdin", "ndjson", r)
	}
	base := u.Base()
	ext := path.Ext(base)
	return m.Load(strings.TrimSuffix(base, ext), strings.TrimPrefix(ext, "."), r)
}

// LoadDir adds an index for each data file listed at u.  Files whose
// extension names no known format are skipped.
func (m *Memory) LoadDir(ctx context.Context, engine storage.Engine, u *storage.URI) error {
	infos, err := engine.List(ctx, u)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if !IsDataFile(info.Name) {
			continue
		}
		if err := m.LoadURI(ctx, engine, u.JoinPath(info.Name)); err != nil {
			return err
		}
	}
	return nil
}

// IsDataFile reports whether the extension of name is a format Load reads.
func IsDataFile(name string) bool {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "json", "ndjson", "jsonl", "csv", "tsv":
		return true
	}
	return false
}

// Load adds an index read from r in the given format: "ndjson" or "json"
// for a sequence of JSON objects (or an array of them), "csv" or "tsv" for
// delimited text with a header line.
func (m *Memory) Load(name, format string, r io.Reader) error {
	var docs []map[string]any
	var err error
	switch strings.ToLower(format) {
	case "json", "ndjson", "jsonl":
		docs, err = ReadJSON(r)
	case "csv":
		docs, err = ReadCSV(r, ',')
	case "tsv":
		docs, err = ReadCSV(r, '\t')
	default:
		return fmt.Errorf("unknown data format %q", format)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return m.AddDocuments(name, docs)
}

// AddDocuments adds an index built from docs.  Nested objects become
// dotted column names, arrays become multi-values, and the type of each
// column is inferred from all of its values.
func (m *Memory) AddDocuments(name string, docs []map[string]any) error {
	index, err := NewIndex(name, docs, m.PageSize)
	if err != nil {
		return err
	}
	m.Add(index)
	return nil
}

// ReadJSON decodes a stream of JSON objects.  A top-level array of objects
// is also accepted.
func ReadJSON(r io.Reader) ([]map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var docs []map[string]any
	for {
		var v any
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, err
		}
		switch v := v.(type) {
		case map[string]any:
			docs = append(docs, v)
		case []any:
			for _, elem := range v {
				doc, ok := elem.(map[string]any)
				if !ok {
					return nil, errors.New("array elements must be objects")
				}
				docs = append(docs, doc)
			}
		default:
			return nil, fmt.Errorf("expected an object but found %v", v)
		}
	}
}

// ReadCSV reads delimited text whose first line names the columns.  Empty
// cells are null and other cells are typed by their content.
func ReadCSV(r io.Reader, delim rune) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	var docs []map[string]any
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		doc := make(map[string]any, len(header))
		for k, cell := range rec {
			if k >= len(header) || cell == "" {
				continue
			}
			doc[header[k]] = parseCell(cell)
		}
		docs = append(docs, doc)
	}
}

func parseCell(s string) any {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return v
	}
	return s
}

type column struct {
	name string
	rows [][]any
}

// NewIndex builds an index from docs with pages of at most pageSize rows.
func NewIndex(name string, docs []map[string]any, pageSize int) (*Index, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var columns []*column
	byName := make(map[string]*column)
	for row, doc := range docs {
		flat := make(map[string][]any)
		if err := flatten(flat, "", doc); err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", name, row, err)
		}
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			c, ok := byName[k]
			if !ok {
				c = &column{name: k, rows: make([][]any, row, len(docs))}
				byName[k] = c
				columns = append(columns, c)
			}
			c.rows = append(c.rows, flat[k])
		}
		for _, c := range columns {
			if len(c.rows) == row {
				c.rows = append(c.rows, nil)
			}
		}
	}
	slices.SortStableFunc(columns, func(a, b *column) int { return strings.Compare(a.name, b.name) })
	index := &Index{Name: name}
	for _, c := range columns {
		index.Schema = append(index.Schema, vector.Column{Name: c.name, Type: inferType(c.rows)})
	}
	for start := 0; start < len(docs); start += pageSize {
		end := min(start+pageSize, len(docs))
		blocks := make([]vector.Block, 0, len(columns))
		for k, c := range columns {
			blocks = append(blocks, buildBlock(index.Schema[k].Type, c.rows[start:end]))
		}
		index.Pages = append(index.Pages, vector.NewPage(index.Schema, blocks, end-start))
	}
	return index, nil
}

func flatten(out map[string][]any, prefix string, doc map[string]any) error {
	for k, v := range doc {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		if err := flattenValue(out, name, v); err != nil {
			return err
		}
	}
	return nil
}

func flattenValue(out map[string][]any, name string, v any) error {
	switch v := v.(type) {
	case nil:
		if _, ok := out[name]; !ok {
			out[name] = nil
		}
	case map[string]any:
		return flatten(out, name, v)
	case []any:
		if _, ok := out[name]; !ok {
			out[name] = nil
		}
		for _, elem := range v {
			if err := flattenValue(out, name, elem); err != nil {
				return err
			}
		}
	case json.Number:
		n, err := parseNumber(v)
		if err != nil {
			return err
		}
		out[name] = append(out[name], n)
	case int:
		out[name] = append(out[name], int64(v))
	case int32:
		out[name] = append(out[name], int64(v))
	case int64, uint64, float64, string, bool:
		out[name] = append(out[name], v)
	default:
		return fmt.Errorf("field %q: unsupported value %v", name, v)
	}
	return nil
}

func parseNumber(n json.Number) (any, error) {
	s := n.String()
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	return strconv.ParseFloat(s, 64)
}

func rawType(v any) esql.DataType {
	switch v := v.(type) {
	case int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return esql.TypeInteger
		}
		return esql.TypeLong
	case uint64:
		return esql.TypeUnsignedLong
	case float64:
		return esql.TypeDouble
	case bool:
		return esql.TypeBoolean
	}
	return esql.TypeKeyword
}

func inferType(rows [][]any) esql.DataType {
	typ := esql.TypeNull
	var total, dates int
	for _, vals := range rows {
		for _, v := range vals {
			total++
			if s, ok := v.(string); ok {
				if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
					dates++
				}
			}
			w, ok := esql.Widen(typ, rawType(v))
			if !ok {
				w = esql.TypeKeyword
			}
			typ = w
		}
	}
	if total > 0 && dates == total {
		return esql.TypeDatetime
	}
	return typ
}

func buildBlock(typ esql.DataType, rows [][]any) vector.Block {
	if typ == esql.TypeNull {
		return vector.NewNull(len(rows))
	}
	b := vector.NewBuilderFor(typ, len(rows))
	for _, vals := range rows {
		switch len(vals) {
		case 0:
			b.AppendNull()
		case 1:
			b.AppendAny(convert(typ, vals[0]))
		default:
			b.BeginPositionEntry()
			for _, v := range vals {
				b.AppendAny(convert(typ, v))
			}
			b.EndPositionEntry()
		}
	}
	return b.Build()
}

func convert(typ esql.DataType, v any) any {
	switch typ {
	case esql.TypeDatetime:
		t, _ := time.Parse(time.RFC3339Nano, v.(string))
		return t.UnixMilli()
	case esql.TypeKeyword:
		if s, ok := v.(string); ok {
			return s
		}
		return esql.FormatScalar(rawType(v), esql.Coerce(v, rawType(v)))
	}
	return esql.Coerce(v, typ)
}
