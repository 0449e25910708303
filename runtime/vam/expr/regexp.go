package expr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
	"github.com/shellyln/go-sql-like-expr/likeexpr"
)

// Regexp evaluates LIKE and RLIKE.  Both match the whole string.
type Regexp struct {
	expr   Evaluator
	re     *regexp.Regexp
	not    bool
	warner *runtime.Warner
}

func NewRegexp(e Evaluator, re *regexp.Regexp, not bool, w *runtime.Warner) (*Regexp, error) {
	if typ := e.Type(); !typ.IsString() && typ != esql.TypeNull {
		return nil, fmt.Errorf("argument of pattern match must be a string, found [%s]", typ)
	}
	return &Regexp{expr: e, re: re, not: not, warner: w}, nil
}

// CompileLike translates a wildcard pattern, in which "*" matches any
// sequence of characters, "?" matches one character, and a backslash
// escapes the next character, into a regular expression.
func CompileLike(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\\':
			if i+1 == len(pattern) {
				b.WriteString(`\\`)
				break
			}
			i++
			// likeexpr only knows escapes of '%', '_' and itself.
			switch e := pattern[i]; e {
			case '%', '_', '\\':
				b.WriteByte('\\')
				b.WriteByte(e)
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return regexp.Compile("(?s)" + likeexpr.ToRegexp(b.String(), '\\', true))
}

// CompileRlike compiles a regular expression that must match an entire
// string.
func CompileRlike(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?s)^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern for RLIKE [%s]: %w", pattern, err)
	}
	return re, nil
}

func (*Regexp) Type() esql.DataType {
	return esql.TypeBoolean
}

func (r *Regexp) Eval(page *vector.Page) vector.Block {
	in := r.expr.Eval(page)
	out := vector.NewBuilder[bool](esql.TypeBoolean, page.Len())
	for pos := range page.Len() {
		v, ok := Single(in, pos, r.warner)
		if !ok {
			out.AppendNull()
			continue
		}
		out.Append(r.re.MatchString(v.(string)) != r.not)
	}
	return out.Build()
}
