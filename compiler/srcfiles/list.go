// Package srcfiles tracks the text of a query, made of any files included
// ahead of it followed by the query itself, and the errors found in it.
package srcfiles

import (
	"os"
	"strings"
)

type List struct {
	Text   string
	Files  []File
	errors ErrorList
}

// Plain returns a list holding only the query text.
func Plain(query string) *List {
	return &List{Text: query, Files: []File{newFile("", 0, query)}}
}

// Concat reads the named files and joins their contents, each followed by
// a newline, ahead of the query text.
func Concat(filenames []string, query string) (*List, error) {
	l := &List{}
	var text strings.Builder
	for _, name := range filenames {
		src, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		l.Files = append(l.Files, newFile(name, text.Len(), string(src)))
		text.Write(src)
		text.WriteByte('\n')
	}
	// The query itself is the one unnamed file.
	l.Files = append(l.Files, newFile("", text.Len(), query))
	text.WriteString(query)
	l.Text = text.String()
	return l, nil
}

// AddError records an error covering offsets pos through end of Text.  An
// end of -1 marks a point rather than a span.
func (l *List) AddError(msg string, pos, end int) {
	l.errors = append(l.errors, &Error{Msg: msg, Pos: pos, End: end, list: l})
}

func (l *List) Errors() ErrorList {
	return l.errors
}

// Error returns the recorded errors as an ErrorList, or nil if there are
// none.
func (l *List) Error() error {
	if len(l.errors) == 0 {
		return nil
	}
	return l.errors
}

// FileOf returns the file that holds offset pos of Text.
func (l *List) FileOf(pos int) File {
	for k := len(l.Files) - 1; k > 0; k-- {
		if l.Files[k].start <= pos {
			return l.Files[k]
		}
	}
	return l.Files[0]
}
