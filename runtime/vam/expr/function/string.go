package function

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/brimdata/esql"
	"github.com/brimdata/esql/runtime/vam/expr"
	"golang.org/x/text/cases"
)

func init() {
	register("concat", "concat(string1, string2[, ..., stringN])",
		"Concatenates two or more strings.",
		2, -1, stringFunc("concat", func(args []any) (any, error) {
			var b strings.Builder
			for _, a := range args {
				b.WriteString(a.(string))
			}
			return b.String(), nil
		}))
	register("length", "length(string)",
		"Returns the number of characters in a string.",
		1, 1, newLength)
	register("to_upper", "to_upper(string)",
		"Converts a string to upper case using the request locale.",
		1, 1, newCaser("to_upper", true))
	register("to_lower", "to_lower(string)",
		"Converts a string to lower case using the request locale.",
		1, 1, newCaser("to_lower", false))
	register("trim", "trim(string)",
		"Removes leading and trailing whitespace from a string.",
		1, 1, stringFunc("trim", func(args []any) (any, error) {
			return strings.TrimFunc(args[0].(string), unicode.IsSpace), nil
		}))
	register("ltrim", "ltrim(string)",
		"Removes leading whitespace from a string.",
		1, 1, stringFunc("ltrim", func(args []any) (any, error) {
			return strings.TrimLeftFunc(args[0].(string), unicode.IsSpace), nil
		}))
	register("rtrim", "rtrim(string)",
		"Removes trailing whitespace from a string.",
		1, 1, stringFunc("rtrim", func(args []any) (any, error) {
			return strings.TrimRightFunc(args[0].(string), unicode.IsSpace), nil
		}))
	register("substring", "substring(string, start[, length])",
		"Returns the substring that starts at the 1-based position start. A negative start counts from the end.",
		2, 3, newSubstring)
	register("starts_with", "starts_with(string, prefix)",
		"Returns whether a string starts with a prefix.",
		2, 2, predicate("starts_with", strings.HasPrefix))
	register("ends_with", "ends_with(string, suffix)",
		"Returns whether a string ends with a suffix.",
		2, 2, predicate("ends_with", strings.HasSuffix))
	register("split", "split(string, delimiter)",
		"Splits a string into a multi-value.",
		2, 2, stringFunc("split", split))
	register("replace", "replace(string, regex, replacement)",
		"Replaces every match of a regular expression in a string.",
		3, 3, newReplace)
	register("levenshtein", "levenshtein(string1, string2)",
		"Returns the edit distance between two strings.",
		2, 2, newLevenshtein)
}

func stringFunc(name string, fn func([]any) (any, error)) builder {
	return func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
		if err := checkArgs(name, types, "string", isString); err != nil {
			return nil, esql.TypeUnsupported, err
		}
		return newScalar(env, esql.TypeKeyword, fn), esql.TypeKeyword, nil
	}
}

func predicate(name string, fn func(s, t string) bool) builder {
	return func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
		if err := checkArgs(name, types, "string", isString); err != nil {
			return nil, esql.TypeUnsupported, err
		}
		return newScalar(env, esql.TypeBoolean, func(args []any) (any, error) {
			return fn(args[0].(string), args[1].(string)), nil
		}), esql.TypeBoolean, nil
	}
}

func newLength(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	if err := checkArgs("length", types, "string", isString); err != nil {
		return nil, esql.TypeUnsupported, err
	}
	return newScalar(env, esql.TypeInteger, func(args []any) (any, error) {
		return int32(utf8.RuneCountInString(args[0].(string))), nil
	}), esql.TypeInteger, nil
}

func newCaser(name string, upper bool) builder {
	return func(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
		if err := checkArgs(name, types, "string", isString); err != nil {
			return nil, esql.TypeUnsupported, err
		}
		locale := env.Rctx.Locale
		return newScalar(env, esql.TypeKeyword, func(args []any) (any, error) {
			// A cases.Caser is stateful so each call gets its own.
			c := cases.Lower(locale)
			if upper {
				c = cases.Upper(locale)
			}
			return c.String(args[0].(string)), nil
		}), esql.TypeKeyword, nil
	}
}

func newSubstring(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	if err := checkArgs("substring", types[:1], "string", isString); err != nil {
		return nil, esql.TypeUnsupported, err
	}
	for k, t := range types[1:] {
		if t != esql.TypeNull && t != esql.TypeInteger {
			return nil, esql.TypeUnsupported, argError("substring", k+1, "integer", t)
		}
	}
	return newScalar(env, esql.TypeKeyword, func(args []any) (any, error) {
		length := -1
		if len(args) == 3 {
			length = int(args[2].(int32))
			if length < 0 {
				return nil, fmt.Errorf("Length parameter cannot be negative, found [%d]", length)
			}
		}
		return Substring(args[0].(string), int(args[1].(int32)), length), nil
	}), esql.TypeKeyword, nil
}

// Substring returns up to length characters of s starting at the 1-based
// position start.  A negative start counts back from the end of s.  A
// negative length takes the rest of the string.
func Substring(s string, start, length int) string {
	runes := []rune(s)
	n := len(runes)
	var from int
	switch {
	case start > 0:
		from = start - 1
	case start < 0:
		from = n + start
	}
	from = min(max(from, 0), n)
	to := n
	if length >= 0 {
		to = min(from+length, n)
	}
	return string(runes[from:to])
}

func split(args []any) (any, error) {
	s, delim := args[0].(string), args[1].(string)
	if delim == "" {
		return nil, fmt.Errorf("delimiter of [split] must not be empty")
	}
	parts := strings.Split(s, delim)
	if len(parts) == 1 {
		return parts[0], nil
	}
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		out = append(out, p)
	}
	return out, nil
}

func newReplace(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	if err := checkArgs("replace", types, "string", isString); err != nil {
		return nil, esql.TypeUnsupported, err
	}
	// Evaluation may run on several pages at once.
	var cache sync.Map
	return newScalar(env, esql.TypeKeyword, func(args []any) (any, error) {
		pattern := args[1].(string)
		re, ok := cache.Load(pattern)
		if !ok {
			compiled, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid regex pattern [%s]", pattern)
			}
			re, _ = cache.LoadOrStore(pattern, compiled)
		}
		return re.(*regexp.Regexp).ReplaceAllString(args[0].(string), args[2].(string)), nil
	}), esql.TypeKeyword, nil
}

func newLevenshtein(env Env, types []esql.DataType) (expr.Function, esql.DataType, error) {
	if err := checkArgs("levenshtein", types, "string", isString); err != nil {
		return nil, esql.TypeUnsupported, err
	}
	return newScalar(env, esql.TypeInteger, func(args []any) (any, error) {
		return int32(levenshtein.ComputeDistance(args[0].(string), args[1].(string))), nil
	}), esql.TypeInteger, nil
}
