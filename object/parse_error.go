package object

import "github.com/chazu/serpent/compiler"

// FromParseError converts a compile-time error into the exception the
// compile step raises: SyntaxError, or IndentationError for errors about
// indentation, with args (msg, (filename, lineno, offset, text)).
func FromParseError(pe *compiler.ParseError) *SignaledException {
	typ := SyntaxErrorType
	switch pe.Kind {
	case compiler.ErrIndentation, compiler.ErrIndentOverflow:
		typ = IndentationErrorType
	}
	filename := pe.Filename
	if filename == "" {
		filename = "<string>"
	}
	info := NewTuple(Str(filename), Int(pe.Line), Int(pe.Column), None)
	e := NewSignaledException(typ, NewTuple(Str(pe.Msg), info))
	if n := e.Normalize(); n != e {
		return n
	}
	e.Context = pe
	return e
}
