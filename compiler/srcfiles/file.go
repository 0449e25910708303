package srcfiles

import (
	"fmt"
	"slices"
	"strings"
)

type File struct {
	Name  string
	start int
	text  string
	// Offsets into text at which each line begins.
	lines []int
}

func newFile(name string, start int, text string) File {
	lines := []int{0}
	for k := 0; k < len(text)-1; k++ {
		if text[k] == '\n' {
			lines = append(lines, k+1)
		}
	}
	return File{Name: name, start: start, text: text, lines: lines}
}

func (f File) line(pos int) int {
	k, found := slices.BinarySearch(f.lines, pos-f.start)
	if !found {
		k--
	}
	return max(k, 0)
}

// Position returns the line and column of offset pos of the list text.
func (f File) Position(pos int) Position {
	if pos < 0 {
		return Position{Pos: -1, Line: -1, Column: -1}
	}
	k := f.line(pos)
	return Position{Pos: pos, Line: k + 1, Column: pos - f.start - f.lines[k] + 1}
}

// Line returns the text of the line holding offset pos of the list text
// without its newline.
func (f File) Line(pos int) string {
	k := f.line(pos)
	end := len(f.text)
	if k+1 < len(f.lines) {
		end = f.lines[k+1]
	}
	return strings.TrimSuffix(f.text[f.lines[k]:end], "\n")
}

type Position struct {
	Pos    int `json:"pos"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) IsValid() bool { return p.Pos >= 0 }

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
