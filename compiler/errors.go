package compiler

import "fmt"

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	// ErrSyntax is a lexical or grammar violation.
	ErrSyntax ErrorKind = iota
	// ErrIndentation is a dedent to a column that was never pushed.
	ErrIndentation
	// ErrIndentOverflow means the nesting limit was exceeded.
	ErrIndentOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "SyntaxError"
	case ErrIndentation:
		return "IndentationError"
	case ErrIndentOverflow:
		return "IndentOverflow"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError is a structured parse failure. Line and Column are 1-based.
type ParseError struct {
	Kind     ErrorKind
	Msg      string
	Filename string
	Line     int
	Column   int

	// Offset is the byte offset of the offending token.
	Offset int
}

func (e *ParseError) Error() string {
	name := e.Filename
	if name == "" {
		name = "<string>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", name, e.Line, e.Column, e.Kind, e.Msg)
}

// errorAt builds a ParseError positioned at tok.
func errorAt(kind ErrorKind, tok Token, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
		Line:   tok.Pos.Line,
		Column: tok.Pos.Column + 1,
		Offset: tok.Pos.Offset,
	}
}
