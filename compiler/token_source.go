package compiler

import (
	"strings"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// TokenSource: INDENT/DEDENT synthesis over the raw token stream
// ---------------------------------------------------------------------------

var parserLog = commonlog.GetLogger("serpent.parser")

// tokenStream is a buffered view of the raw tokens that skips hidden
// tokens when looking ahead.
type tokenStream struct {
	tokens []Token
	p      int // index of the current visible token
}

func newTokenStream(tokens []Token) *tokenStream {
	s := &tokenStream{tokens: tokens}
	s.p = s.skipHidden(0)
	return s
}

func (s *tokenStream) skipHidden(i int) int {
	for i < len(s.tokens)-1 && s.tokens[i].Hidden {
		i++
	}
	return i
}

// current returns the next visible token.
func (s *tokenStream) current() Token {
	return s.tokens[s.p]
}

// previous returns the visible token before the current one.
func (s *tokenStream) previous() (Token, bool) {
	return s.visibleBefore(s.p)
}

func (s *tokenStream) visibleBefore(index int) (Token, bool) {
	for i := index - 1; i >= 0; i-- {
		if !s.tokens[i].Hidden {
			return s.tokens[i], true
		}
	}
	return Token{}, false
}

func (s *tokenStream) consume() {
	if s.tokens[s.p].Type != TokenEOF {
		s.p = s.skipHidden(s.p + 1)
	}
}

// TokenSource turns a raw token stream with LEADING_WS markers into the
// stream the grammar expects, with explicit NEWLINE, INDENT and DEDENT
// tokens.
//
// Upon a NEWLINE the first token of the next line is examined. Its column
// (or the width of its LEADING_WS) is compared against the indentation
// stack: a deeper column pushes and yields one INDENT, a shallower one pops
// and yields one DEDENT per level. Tokens are staged in a queue because a
// single input token can require several imaginary tokens before it.
type TokenSource struct {
	stream    *tokenStream
	stack     *IndentStack
	queue     []Token
	lastAdded int // raw index of the last token moved to the queue
	single    bool
	filename  string
}

// NewTokenSource wraps raw tokens produced by a Lexer. In single mode the
// stream is shaped for one interactive statement.
func NewTokenSource(tokens []Token, filename string, single bool, maxIndents int) *TokenSource {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
		tokens = append(tokens, Token{Type: TokenEOF, Index: len(tokens)})
	}
	return &TokenSource{
		stream:    newTokenStream(tokens),
		stack:     NewIndentStack(maxIndents),
		lastAdded: -1,
		single:    single,
		filename:  filename,
	}
}

// Stack exposes the indentation stack.
func (s *TokenSource) Stack() *IndentStack {
	return s.stack
}

// NextToken returns the next token. Once EOF is reached it is returned on
// every subsequent call.
func (s *TokenSource) NextToken() (Token, error) {
	for len(s.queue) == 0 {
		if err := s.insertImaginaryTokens(); err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Filename = s.filename
			}
			return Token{}, err
		}
	}
	t := s.queue[0]
	if t.Type != TokenEOF {
		s.queue = s.queue[1:]
	}
	return t, nil
}

// All drains the source up to and including EOF.
func (s *TokenSource) All() ([]Token, error) {
	var out []Token
	for {
		t, err := s.NextToken()
		if err != nil {
			return out, err
		}
		out = append(out, t)
		if t.Type == TokenEOF {
			return out, nil
		}
	}
}

func (s *TokenSource) insertImaginaryTokens() error {
	t := s.stream.current()

	switch t.Type {
	case TokenEOF:
		prev, hasPrev := s.stream.previous()
		if hasPrev {
			t = placeEOF(t, prev)
		}
		if !s.single {
			switch {
			case !hasPrev:
				s.newline(t)
			case prev.Type == TokenLeadingWS:
				if err := s.dedent(EOFColumn, t); err != nil {
					return err
				}
				// Whitespace on the last line already followed a NEWLINE.
				if before, ok := s.stream.visibleBefore(prev.Index); !ok || before.Type != TokenNewline {
					s.newline(t)
				}
			case prev.Type != TokenNewline:
				s.newline(t)
				if err := s.dedent(EOFColumn, t); err != nil {
					return err
				}
			}
		} else if err := s.dedent(EOFColumn, t); err != nil {
			return err
		}
		s.enqueue(t)
		return nil

	case TokenNewline:
		s.enqueue(t)
		newline := t
		s.stream.consume()

		t = s.stream.current()
		commented := s.enqueueHidden(t)

		cpos := t.Pos.Column
		anchor := t
		switch t.Type {
		case TokenEOF:
			t = placeEOF(t, newline)
			anchor = t
			cpos = EOFColumn
		case TokenLeadingWS:
			s.stream.consume()
			anchor = s.stream.current()
			if anchor.Type == TokenEOF {
				return nil
			}
			cpos = len(t.Literal)
		default:
			s.stream.consume()
		}

		if top := s.stack.Peek(); cpos > top {
			if err := s.indent(cpos, anchor); err != nil {
				return err
			}
		} else if cpos < top {
			if err := s.dedent(cpos, anchor); err != nil {
				return err
			}
		}

		if t.Type == TokenEOF && s.single {
			for i := 1; i < strings.Count(newline.Literal, "\n"); i++ {
				s.newline(newline)
			}
			for _, c := range commented {
				s.newline(c)
			}
		}

		if t.Type != TokenLeadingWS {
			s.queue = append(s.queue, t)
		}
		return nil

	case TokenLeadingWS:
		// Only the first line can get here; later ones are handled
		// with their NEWLINE.
		s.enqueueHidden(t)
		s.stream.consume()
		anchor := s.stream.current()
		if anchor.Type == TokenEOF {
			return nil
		}
		if cpos := len(t.Literal); cpos > s.stack.Peek() {
			return s.indent(cpos, anchor)
		}
		return nil

	default:
		s.enqueue(t)
		s.stream.consume()
		return nil
	}
}

// placeEOF moves the EOF marker onto the end of the preceding token.
func placeEOF(eof, prev Token) Token {
	eof.Pos = Position{Offset: prev.End, Line: prev.Pos.Line, Column: prev.Pos.Column}
	eof.End = prev.End
	return eof
}

func (s *TokenSource) enqueue(t Token) {
	s.enqueueHidden(t)
	s.queue = append(s.queue, t)
}

// enqueueHidden moves the hidden tokens preceding t into the queue. For an
// interactive statement at end of input, trailing comment and blank-line
// newlines are turned into real NEWLINE tokens; the returned tokens are
// the comments whose extra newlines must still be reproduced.
func (s *TokenSource) enqueueHidden(t Token) []Token {
	var commented []Token
	converted := -1
	raw := s.stream.tokens

	if s.single && t.Type == TokenEOF {
	scan:
		for k := s.lastAdded + 1; k < len(raw); k++ {
			h := raw[k]
			switch {
			case h.Type == TokenComment && h.Hidden:
				for i := 1; i < strings.Count(h.Literal, "\n"); i++ {
					commented = append(commented, h)
				}
			case h.Type == TokenNewline && h.Hidden:
				s.newline(h)
				converted = k
				break scan
			case h.Type == TokenLeadingWS:
			default:
				break scan
			}
		}
	}

	if t.Index >= 0 {
		for k := s.lastAdded + 1; k < t.Index && k < len(raw); k++ {
			if raw[k].Hidden && k != converted {
				s.queue = append(s.queue, raw[k])
			}
		}
		s.lastAdded = t.Index
	}
	return commented
}

func (s *TokenSource) newline(at Token) {
	s.queue = append(s.queue, Token{
		Type:    TokenNewline,
		Literal: "\n",
		Pos:     Position{Offset: at.Pos.Offset, Line: at.Pos.Line, Column: at.Pos.Column},
		End:     at.Pos.Offset,
		Index:   -1,
	})
}

// imaginary builds an INDENT or DEDENT sitting just before t.
func imaginary(typ TokenType, t Token) Token {
	off := t.Pos.Offset - 1
	if off < 0 {
		off = 0
	}
	return Token{
		Type:  typ,
		Pos:   Position{Offset: off, Line: t.Pos.Line, Column: t.Pos.Column},
		End:   off,
		Index: -1,
	}
}

func (s *TokenSource) indent(cpos int, t Token) error {
	if err := s.stack.Push(cpos, t); err != nil {
		return err
	}
	parserLog.Debugf("indent to %d at line %d:%s", cpos, t.Pos.Line, s.stack)
	s.queue = append(s.queue, imaginary(TokenIndent, t))
	return nil
}

func (s *TokenSource) dedent(cpos int, t Token) error {
	prev, err := s.stack.FindPrevious(cpos, t)
	if err != nil {
		return err
	}
	n := s.stack.Truncate(prev)
	for i := 0; i < n; i++ {
		s.queue = append(s.queue, imaginary(TokenDedent, t))
	}
	if n > 0 {
		parserLog.Debugf("dedent %d level(s) at line %d:%s", n, t.Pos.Line, s.stack)
	}
	return nil
}
