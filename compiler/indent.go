package compiler

import (
	"strconv"
	"strings"
)

// MaxIndents is the default nesting limit of an IndentStack.
const MaxIndents = 100

// Reserved columns that always dedent to the base level.
//
// EOFColumn is what end of input pretends to be. MultilineStringColumn is
// the column accounting value of multi-line string literals. The two are
// kept distinct even though they resolve identically; it is not settled
// that they mean the same thing.
const (
	EOFColumn             = -1
	MultilineStringColumn = -2
)

// IndentStack tracks the open indentation levels of a token stream.
//
// Before the first line is read a single zero is pushed; it is never
// popped. Entries are strictly increasing from bottom to top.
type IndentStack struct {
	levels []int
	max    int
}

// NewIndentStack returns a stack holding only the base level. max bounds
// the number of entries; non-positive values select MaxIndents.
func NewIndentStack(max int) *IndentStack {
	if max <= 0 {
		max = MaxIndents
	}
	return &IndentStack{levels: []int{0}, max: max}
}

// Push opens a new indentation level at col.
func (s *IndentStack) Push(col int, at Token) error {
	if len(s.levels) >= s.max {
		return errorAt(ErrIndentOverflow, at, "too many levels of indentation (limit %d)", s.max)
	}
	s.levels = append(s.levels, col)
	return nil
}

// Peek returns the innermost level.
func (s *IndentStack) Peek() int {
	return s.levels[len(s.levels)-1]
}

// Depth returns the number of entries including the base level.
func (s *IndentStack) Depth() int {
	return len(s.levels)
}

// Values returns a copy of the stack, bottom first.
func (s *IndentStack) Values() []int {
	out := make([]int, len(s.levels))
	copy(out, s.levels)
	return out
}

// FindPrevious returns the index of the entry below the top equal to col.
// The reserved sentinel columns resolve to the base level; any other
// unmatched column is an indentation error reported at tok.
func (s *IndentStack) FindPrevious(col int, tok Token) (int, error) {
	for j := len(s.levels) - 2; j >= 0; j-- {
		if s.levels[j] == col {
			return j, nil
		}
	}
	if col == EOFColumn || col == MultilineStringColumn {
		return 0, nil
	}
	return -1, errorAt(ErrIndentation, tok, "unindent does not match any outer indentation level")
}

// Truncate pops every entry above index and returns how many were popped.
func (s *IndentStack) Truncate(index int) int {
	if index < 0 {
		index = 0
	}
	popped := len(s.levels) - 1 - index
	if popped <= 0 {
		return 0
	}
	s.levels = s.levels[:index+1]
	return popped
}

// String renders the stack top first, e.g. " 8 4 0".
func (s *IndentStack) String() string {
	var sb strings.Builder
	for j := len(s.levels) - 1; j >= 0; j-- {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(s.levels[j]))
	}
	return sb.String()
}
