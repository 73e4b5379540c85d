package compiler

import (
	"fmt"
	"sort"
)

// ---------------------------------------------------------------------------
// Token types for the Python lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Literals and names
	TokenName    // foo, _bar
	TokenKeyword // if, def, not, ...
	TokenNumber  // 42, 0x1F, 3.14, 1e10, 2j, 7L
	TokenString  // 'x', r"y", """z"""
	TokenOp      // + - ( ) : ...

	// Layout
	TokenNewline   // one or more physical newlines ending a logical line
	TokenIndent    // synthetic
	TokenDedent    // synthetic
	TokenLeadingWS // indentation at the start of a logical line
	TokenComment   // # ...
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenName:      "NAME",
	TokenKeyword:   "KEYWORD",
	TokenNumber:    "NUMBER",
	TokenString:    "STRING",
	TokenOp:        "OP",
	TokenNewline:   "NEWLINE",
	TokenIndent:    "INDENT",
	TokenDedent:    "DEDENT",
	TokenLeadingWS: "LEADING_WS",
	TokenComment:   "COMMENT",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 0-based character position in line
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text
	Pos     Position // start position
	End     int      // byte offset just past the token

	// Index is the token's position in the raw stream, -1 for synthetic tokens.
	Index int

	// Hidden tokens (comments, blank-line newlines) are kept for
	// reattachment but never reach the grammar.
	Hidden bool

	// Multiline is set on string tokens spanning more than one line.
	Multiline bool
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF, TokenIndent, TokenDedent:
		return t.Type.String()
	case TokenNewline:
		return "NEWLINE"
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
}

// Is reports whether the token has the given type and literal.
func (t Token) Is(typ TokenType, literal string) bool {
	return t.Type == typ && t.Literal == literal
}

// Reserved words.
var keywords = map[string]bool{
	"and": true, "as": true, "assert": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"not": true, "or": true, "pass": true, "raise": true, "return": true,
	"try": true, "while": true, "with": true,
}

// IsKeyword reports whether name is a reserved word.
func IsKeyword(name string) bool {
	return keywords[name]
}

// Keywords returns the reserved words in sorted order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Operators ordered longest first so the lexer can take the first match.
var operators = []string{
	"**=", "//=", ">>=", "<<=",
	"**", "//", ">>", "<<", "<=", ">=", "==", "!=", "<>", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "@", "=", "`",
}
