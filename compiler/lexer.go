package compiler

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: raw tokenizer for Python source
// ---------------------------------------------------------------------------

// DefaultTabSize is the column multiple a tab advances indentation to.
const DefaultTabSize = 8

// Lexer tokenizes Python source code into the raw token stream. It knows
// nothing about block structure: indentation is reported as LEADING_WS
// tokens and turned into INDENT/DEDENT by a TokenSource.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (0-based)

	tabSize     int
	depth       int  // bracket nesting; newlines are hidden while > 0
	atLineStart bool // next token begins a physical line

	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:       input,
		line:        1,
		col:         -1,
		tabSize:     DefaultTabSize,
		atLineStart: true,
	}
	l.readChar()
	return l
}

// SetTabSize changes the tab stop used to measure indentation.
func (l *Lexer) SetTabSize(n int) {
	if n > 0 {
		l.tabSize = n
	}
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = len(l.input)
		l.readPos = len(l.input) + 1
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

func (l *Lexer) emit(typ TokenType, literal string, pos Position, hidden bool) *Token {
	l.tokens = append(l.tokens, Token{
		Type:    typ,
		Literal: literal,
		Pos:     pos,
		End:     l.pos,
		Index:   len(l.tokens),
		Hidden:  hidden,
	})
	return &l.tokens[len(l.tokens)-1]
}

func (l *Lexer) errorf(pos Position, format string, args ...interface{}) *ParseError {
	return errorAt(ErrSyntax, Token{Pos: pos}, format, args...)
}

// atNewline reports whether the current character starts a line break.
func (l *Lexer) atNewline() bool {
	return l.ch == '\n' || (l.ch == '\r' && l.peekChar() == '\n')
}

// readNewline consumes one line break (\n or \r\n).
func (l *Lexer) readNewline() {
	if l.ch == '\r' {
		l.readChar()
	}
	l.readChar()
}

// Tokenize runs the lexer to completion. The final token is always EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		if l.atLineStart && l.depth == 0 {
			l.lineStart()
		}

		pos := l.position()
		switch {
		case l.atEOF():
			if l.depth > 0 {
				return nil, l.errorf(pos, "unexpected EOF in multi-line statement")
			}
			l.emit(TokenEOF, "", pos, false)
			return l.tokens, nil

		case l.ch == ' ' || l.ch == '\t' || l.ch == '\f':
			l.readChar()

		case l.ch == '\\':
			l.readChar()
			if !l.atNewline() {
				return nil, l.errorf(pos, "unexpected character after line continuation character")
			}
			l.readNewline()
			if l.atEOF() {
				return nil, l.errorf(pos, "unexpected EOF after line continuation")
			}

		case l.ch == '#':
			start := l.pos
			for !l.atEOF() && l.ch != '\n' && l.ch != '\r' {
				l.readChar()
			}
			l.emit(TokenComment, l.input[start:l.pos], pos, true)

		case l.atNewline():
			start := l.pos
			if l.depth > 0 {
				l.readNewline()
				l.emit(TokenNewline, l.input[start:l.pos], pos, true)
				continue
			}
			for l.atNewline() {
				l.readNewline()
			}
			l.emit(TokenNewline, l.input[start:l.pos], pos, false)
			l.atLineStart = true

		case l.ch == '\'' || l.ch == '"':
			if err := l.readString(pos, l.pos); err != nil {
				return nil, err
			}

		case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
			l.readNumber(pos)

		case isLetter(l.ch) || l.ch == '_':
			if err := l.readName(pos); err != nil {
				return nil, err
			}

		default:
			if err := l.readOperator(pos); err != nil {
				return nil, err
			}
		}
	}
}

// lineStart handles the beginning of physical lines outside brackets:
// blank and comment-only lines are emitted as hidden tokens, and the
// indentation of the first line with content becomes LEADING_WS.
func (l *Lexer) lineStart() {
	for {
		pos := l.position()
		width := 0
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\f' {
			switch l.ch {
			case ' ':
				width++
			case '\t':
				width = (width/l.tabSize + 1) * l.tabSize
			case '\f':
				width = 0
			}
			l.readChar()
		}

		switch {
		case l.atEOF():
			if width > 0 {
				l.emit(TokenLeadingWS, strings.Repeat(" ", width), pos, false)
			}
			l.atLineStart = false
			return

		case l.atNewline():
			start := l.pos
			nlPos := l.position()
			l.readNewline()
			l.emit(TokenNewline, l.input[start:l.pos], nlPos, true)

		case l.ch == '#':
			start := l.pos
			cPos := l.position()
			for !l.atEOF() && l.ch != '\n' && l.ch != '\r' {
				l.readChar()
			}
			for l.atNewline() {
				l.readNewline()
			}
			l.emit(TokenComment, l.input[start:l.pos], cPos, true)

		default:
			if width > 0 {
				l.emit(TokenLeadingWS, strings.Repeat(" ", width), pos, false)
			}
			l.atLineStart = false
			return
		}
	}
}

// readString reads a string literal whose prefix (if any) starts at start.
// The literal keeps prefix and quotes.
func (l *Lexer) readString(pos Position, start int) error {
	quote := l.ch
	triple := false
	l.readChar()
	if l.ch == quote && l.peekChar() == quote {
		triple = true
		l.readChar()
		l.readChar()
	} else if l.ch == quote {
		l.readChar()
		l.emit(TokenString, l.input[start:l.pos], pos, false)
		return nil
	}

	startLine := pos.Line
	for {
		switch {
		case l.atEOF():
			if triple {
				return l.errorf(pos, "EOF while scanning triple-quoted string literal")
			}
			return l.errorf(pos, "EOL while scanning string literal")
		case l.ch == '\\':
			l.readChar()
			if l.atEOF() {
				continue
			}
			if l.ch == '\r' && l.peekChar() == '\n' {
				l.readChar()
			}
			l.readChar()
		case !triple && l.atNewline():
			return l.errorf(pos, "EOL while scanning string literal")
		case l.ch == quote:
			l.readChar()
			if !triple {
				tok := l.emit(TokenString, l.input[start:l.pos], pos, false)
				tok.Multiline = l.line != startLine
				return nil
			}
			if l.ch == quote && l.peekChar() == quote {
				l.readChar()
				l.readChar()
				tok := l.emit(TokenString, l.input[start:l.pos], pos, false)
				tok.Multiline = l.line != startLine
				return nil
			}
		default:
			l.readChar()
		}
	}
}

// readNumber reads an integer, float, or imaginary literal.
func (l *Lexer) readNumber(pos Position) {
	start := l.pos

	if l.ch == '0' {
		switch l.peekChar() {
		case 'x', 'X':
			l.readChar()
			l.readChar()
			for isHexDigit(l.ch) {
				l.readChar()
			}
			l.readNumberSuffix()
			l.emit(TokenNumber, l.input[start:l.pos], pos, false)
			return
		case 'o', 'O', 'b', 'B':
			l.readChar()
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
			l.readNumberSuffix()
			l.emit(TokenNumber, l.input[start:l.pos], pos, false)
			return
		}
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	l.readNumberSuffix()
	l.emit(TokenNumber, l.input[start:l.pos], pos, false)
}

func (l *Lexer) readNumberSuffix() {
	switch l.ch {
	case 'j', 'J', 'l', 'L':
		l.readChar()
	}
}

// readName reads an identifier or keyword, or a prefixed string literal
// such as r'...' or ub"...".
func (l *Lexer) readName(pos Position) error {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	literal := l.input[start:l.pos]

	if (l.ch == '\'' || l.ch == '"') && isStringPrefix(literal) {
		return l.readString(pos, start)
	}

	if IsKeyword(literal) {
		l.emit(TokenKeyword, literal, pos, false)
	} else {
		l.emit(TokenName, literal, pos, false)
	}
	return nil
}

// readOperator reads the longest operator at the current position.
func (l *Lexer) readOperator(pos Position) error {
	rest := l.input[l.pos:]
	for _, op := range operators {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		switch op {
		case "(", "[", "{":
			l.depth++
		case ")", "]", "}":
			if l.depth == 0 {
				return l.errorf(pos, "unmatched '%s'", op)
			}
			l.depth--
		}
		for range op {
			l.readChar()
		}
		l.emit(TokenOp, op, pos, false)
		return nil
	}
	return l.errorf(pos, "unexpected character %q", l.ch)
}

// Helper functions

func isStringPrefix(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	lower := strings.ToLower(s)
	switch lower {
	case "r", "u", "b", "ur", "br", "rb":
		return true
	}
	return false
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Tokenize returns the raw token stream for input.
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}
