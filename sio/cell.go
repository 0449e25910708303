package sio

import (
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/vector"
)

// Async marks the output of an async query.
type Async struct {
	ID        string
	IsRunning bool
}

// JSONCell returns position pos of b as a value for a JSON or YAML
// document.  A multi-value becomes a []any.
func JSONCell(b vector.Block, pos int) any {
	switch v := vector.Get(b, pos).(type) {
	case nil:
		return nil
	case []any:
		for k := range v {
			v[k] = esql.JSONScalar(b.Type(), v[k])
		}
		return v
	default:
		return esql.JSONScalar(b.Type(), v)
	}
}

// TextCell renders position pos of b for a text format.  A multi-value
// renders as "[a, b]".
func TextCell(b vector.Block, pos int, null string) string {
	switch v := vector.Get(b, pos).(type) {
	case nil:
		return null
	case []any:
		var sb strings.Builder
		sb.WriteByte('[')
		for k, x := range v {
			if k > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(esql.FormatScalar(b.Type(), x))
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return esql.FormatScalar(b.Type(), v)
	}
}
