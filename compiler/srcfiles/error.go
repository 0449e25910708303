package srcfiles

import (
	"fmt"
	"strings"
)

// ErrorList is the error returned for a query with one or more problems,
// in the order they were found.
type ErrorList []*Error

func (e ErrorList) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

type Error struct {
	Msg string
	Pos int
	End int
	// list is nil for an error that was not located in any text.
	list *List
}

func (e *Error) Position() Position {
	if e.list == nil {
		return Position{Pos: -1, Line: -1, Column: -1}
	}
	return e.list.FileOf(e.Pos).Position(e.Pos)
}

// Error renders the message, where it was found, the offending line, and
// a marker under the offending text.
func (e *Error) Error() string {
	if e.list == nil {
		return e.Msg
	}
	file := e.list.FileOf(e.Pos)
	start := file.Position(e.Pos)
	line := file.Line(e.Pos)
	var b strings.Builder
	b.WriteString(e.Msg)
	if file.Name != "" {
		fmt.Fprintf(&b, " in %s", file.Name)
	}
	fmt.Fprintf(&b, " at line %d, column %d:\n%s\n", start.Line, start.Column, line)
	if e.End < 0 {
		b.WriteString(pointer(start.Column))
		return b.String()
	}
	end := file.Position(e.End)
	n := end.Column - start.Column + 1
	if end.Line != start.Line {
		n = len(line) - start.Column + 1
	}
	b.WriteString(strings.Repeat(" ", start.Column-1))
	b.WriteString(strings.Repeat("~", max(n, 1)))
	return b.String()
}

// pointer returns a caret under column flanked by "===".
func pointer(column int) string {
	pad := column - 1
	arrow := min(pad, 4)
	s := strings.Repeat(" ", pad-arrow)
	if arrow > 0 {
		s += strings.Repeat("=", arrow-1) + " "
	}
	return s + "^ ==="
}
