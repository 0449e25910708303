package sfmt

import (
	"fmt"
	"strings"
)

type formatter struct {
	strings.Builder
}

func (f *formatter) write(args ...any) {
	if len(args) == 1 {
		f.WriteString(args[0].(string))
		return
	}
	fmt.Fprintf(&f.Builder, args[0].(string), args[1:]...)
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// quoteIdentifier returns s as written in a query, adding backquotes when
// s is not a plain identifier or is a keyword.
func quoteIdentifier(s string) string {
	if isIdentifier(s) && !isKeyword(s) {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for k, c := range []byte(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '@':
		case c >= '0' && c <= '9':
			if k == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

var keywords = map[string]bool{
	"and": true, "asc": true, "by": true, "desc": true, "false": true,
	"first": true, "in": true, "is": true, "last": true, "like": true,
	"not": true, "null": true, "nulls": true, "or": true, "rlike": true,
	"true": true,
}

func isKeyword(s string) bool {
	return keywords[strings.ToLower(s)]
}
